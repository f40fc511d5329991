package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/supporthq/ticket-enrichment-platform/pkg/errors"
)

// ValidationError holds per-field validation failure messages. Every
// missing or malformed field is reported, not just the first.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == pkgerrors.ErrValidation
}

var urgencyLevels = map[string]struct{}{
	"critical": {},
	"high":     {},
	"medium":   {},
	"low":      {},
}

// ValidateRawTicket decodes and validates a raw ticket payload. The required
// fields are ticket_id, subject, body, created_at, customer_id, and metadata;
// priority is optional but must name a known urgency level when present.
// created_at must be a JSON integer: a string value, even a numeric one, is
// rejected rather than coerced because the row store's range key relies on
// numeric ordering.
func ValidateRawTicket(payload []byte) (*RawTicket, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &ValidationError{Fields: map[string]string{
			"payload": "not a JSON object",
		}}
	}

	errs := make(map[string]string)
	ticket := &RawTicket{}

	ticket.TicketID = requireString(fields, "ticket_id", errs)
	ticket.Subject = requireString(fields, "subject", errs)
	ticket.Body = requireString(fields, "body", errs)
	ticket.CustomerID = requireString(fields, "customer_id", errs)
	ticket.CreatedAt = requireUnixTimestamp(fields, "created_at", errs)

	if raw, ok := fields["priority"]; ok && !isJSONNull(raw) {
		var priority string
		if err := json.Unmarshal(raw, &priority); err != nil {
			errs["priority"] = "must be a string"
		} else if priority != "" {
			if _, known := urgencyLevels[strings.ToLower(priority)]; !known {
				errs["priority"] = "must be one of critical, high, medium, low"
			} else {
				ticket.Priority = strings.ToLower(priority)
			}
		}
	}

	if raw, ok := fields["metadata"]; !ok || isJSONNull(raw) {
		errs["metadata"] = "metadata is required"
	} else {
		var meta TicketMetadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			errs["metadata"] = "must be an object with source, language, tags"
		} else {
			if meta.Source == "" {
				errs["metadata.source"] = "source is required"
			}
			if meta.Language == "" {
				meta.Language = "en"
			}
			if meta.Tags == nil {
				meta.Tags = []string{}
			}
			ticket.Metadata = meta
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return ticket, nil
}

func requireString(fields map[string]json.RawMessage, name string, errs map[string]string) string {
	raw, ok := fields[name]
	if !ok || isJSONNull(raw) {
		errs[name] = name + " is required"
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		errs[name] = "must be a string"
		return ""
	}
	return value
}

func requireUnixTimestamp(fields map[string]json.RawMessage, name string, errs map[string]string) int64 {
	raw, ok := fields[name]
	if !ok || isJSONNull(raw) {
		errs[name] = name + " is required"
		return 0
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		errs[name] = "must be an integer Unix timestamp, not a string"
		return 0
	}
	var value int64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		errs[name] = "must be an integer Unix timestamp"
		return 0
	}
	return value
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
