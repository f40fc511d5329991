// Package errors defines the pipeline error taxonomy. Every per-message
// failure is classified into a lifecycle stage so the worker can label
// metrics and logs consistently; only queue unavailability is fatal.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedNotification = errors.New("malformed queue notification")
	ErrFetch                 = errors.New("object fetch failed")
	ErrValidation            = errors.New("ticket validation failed")
	ErrEnrichment            = errors.New("enrichment failed")
	ErrStorage               = errors.New("storage write failed")
	ErrQueueUnavailable      = errors.New("queue unavailable")
)

// StageError wraps an underlying error with the pipeline stage it belongs
// to. The sentinel is preserved for errors.Is checks.
type StageError struct {
	Sentinel error
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Sentinel.Error(), e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == e.Sentinel
}

// Wrap attaches a stage sentinel to err. A nil err returns nil.
func Wrap(sentinel error, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Sentinel: sentinel, Err: err}
}

// Wrapf attaches a stage sentinel to a formatted error.
func Wrapf(sentinel error, format string, args ...any) error {
	return &StageError{Sentinel: sentinel, Err: fmt.Errorf(format, args...)}
}

// StageOf returns the lifecycle stage label for an error, used for metric
// labels and structured log fields.
func StageOf(err error) string {
	switch {
	case errors.Is(err, ErrMalformedNotification):
		return "notification"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrValidation):
		return "validate"
	case errors.Is(err, ErrEnrichment):
		return "enrich"
	case errors.Is(err, ErrStorage):
		return "store"
	case errors.Is(err, ErrQueueUnavailable):
		return "queue"
	default:
		return "unknown"
	}
}
