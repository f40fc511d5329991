// Package worker runs the ticket processing loop: receive queue
// notifications, fetch and validate the raw ticket, enrich it, persist the
// result, then delete the message. Any per-message failure leaves the
// message unacked so the queue redelivers it after the visibility timeout.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/supporthq/ticket-enrichment-platform/internal/analytics"
	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
	pkgerrors "github.com/supporthq/ticket-enrichment-platform/pkg/errors"
	"github.com/supporthq/ticket-enrichment-platform/pkg/logger"
	"github.com/supporthq/ticket-enrichment-platform/pkg/metrics"
	"github.com/supporthq/ticket-enrichment-platform/pkg/queue"
)

// Queue is the message broker surface the worker consumes.
type Queue interface {
	Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Message, error)
	Delete(ctx context.Context, msg queue.Message) error
}

// ObjectFetcher retrieves raw ticket payloads from the object store.
type ObjectFetcher interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Enricher computes the ML signals for one ticket.
type Enricher interface {
	Enrich(ctx context.Context, ticket *schema.RawTicket) (schema.EnrichmentData, error)
}

// ResultStore persists one enriched ticket to both storage targets.
type ResultStore interface {
	StoreResults(ctx context.Context, enriched *schema.EnrichedTicket) error
}

// EventTracker receives analytics events about terminal outcomes. It must
// never block.
type EventTracker interface {
	Track(event analytics.ProcessedEvent)
}

// notification is the event-shaped envelope the generator publishes for each
// uploaded ticket. Only bucket and key are consumed; bucket falls back to
// the configured raw bucket when the producer omits it.
type notification struct {
	Records []struct {
		Bucket string `json:"bucket"`
		Key    string `json:"key"`
	} `json:"records"`
}

// Worker ties the collaborators together. All dependencies are injected so
// tests can run the loop against fakes.
type Worker struct {
	queue    Queue
	objects  ObjectFetcher
	enricher Enricher
	store    ResultStore
	tracker  EventTracker
	stats    *Stats
	metrics  *metrics.Metrics
	queueCfg config.QueueConfig
	loopCfg  config.WorkerConfig
	buckets  config.ObjectStoreConfig
	logger   *slog.Logger
}

// New creates a Worker. tracker and m may be nil.
func New(q Queue, objects ObjectFetcher, enricher Enricher, store ResultStore,
	tracker EventTracker, stats *Stats, m *metrics.Metrics,
	queueCfg config.QueueConfig, loopCfg config.WorkerConfig, buckets config.ObjectStoreConfig) *Worker {
	return &Worker{
		queue:    q,
		objects:  objects,
		enricher: enricher,
		store:    store,
		tracker:  tracker,
		stats:    stats,
		metrics:  m,
		queueCfg: queueCfg,
		loopCfg:  loopCfg,
		buckets:  buckets,
		logger:   logger.WithComponent("worker"),
	}
}

// RunForever polls until ctx is cancelled. Cancellation is honored between
// batches; an in-flight message always runs to its terminal outcome.
func (w *Worker) RunForever(ctx context.Context) error {
	w.logger.Info("worker loop started",
		"max_messages", w.queueCfg.MaxMessages,
		"wait_time", w.queueCfg.WaitTime.String(),
	)
	reportEvery := w.loopCfg.ReportInterval
	if reportEvery <= 0 {
		reportEvery = time.Minute
	}
	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.stats.Report(w.logger, "worker statistics")
		default:
		}
		if err := w.PollAndProcess(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("poll failed", "error", err)
			time.Sleep(time.Second)
		}
	}
}

// PollAndProcess receives one batch and processes each message in order. A
// failed message never aborts the rest of its batch.
func (w *Worker) PollAndProcess(ctx context.Context) error {
	msgs, err := w.queue.Receive(ctx, w.queueCfg.MaxMessages, w.queueCfg.WaitTime)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrQueueUnavailable, "receive: %v", err)
	}
	if len(msgs) == 0 {
		w.count(func(m *metrics.Metrics) { m.EmptyPollsTotal.Inc() })
		return nil
	}
	w.count(func(m *metrics.Metrics) {
		m.MessagesReceivedTotal.Add(float64(len(msgs)))
		m.ReceiveBatchSize.Observe(float64(len(msgs)))
	})

	for _, msg := range msgs {
		w.processMessage(ctx, msg)
	}
	return nil
}

// processMessage runs one message to a terminal outcome and updates stats,
// metrics and analytics exactly once.
func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	w.count(func(m *metrics.Metrics) { m.InFlightMessages.Inc() })
	defer w.count(func(m *metrics.Metrics) { m.InFlightMessages.Dec() })

	start := time.Now()
	ticketID, err := w.handle(ctx, msg)
	elapsed := time.Since(start)

	if err != nil {
		stage := pkgerrors.StageOf(err)
		w.stats.RecordFailed()
		w.count(func(m *metrics.Metrics) { m.TicketsFailedTotal.WithLabelValues(stage).Inc() })
		w.logger.Error("ticket processing failed",
			"message_id", msg.ID,
			"ticket_id", ticketID,
			"stage", stage,
			"error", err,
		)
		w.track(analytics.ProcessedEvent{
			Type:      analytics.EventTicketFailed,
			TicketID:  ticketID,
			Stage:     stage,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			LatencyMs: elapsed.Milliseconds(),
			Consumer:  w.queueCfg.Consumer,
		})
		return
	}

	if err := w.queue.Delete(ctx, msg); err != nil {
		// The ticket is stored; the message will be redelivered and the
		// replay overwrites the same records.
		w.stats.RecordFailed()
		w.count(func(m *metrics.Metrics) {
			m.TicketsFailedTotal.WithLabelValues("queue").Inc()
		})
		w.logger.Error("failed to delete processed message",
			"message_id", msg.ID,
			"ticket_id", ticketID,
			"error", err,
		)
		return
	}

	w.stats.RecordProcessed()
	w.count(func(m *metrics.Metrics) {
		m.TicketsProcessedTotal.Inc()
		m.MessagesDeletedTotal.Inc()
		m.ProcessingDuration.Observe(elapsed.Seconds())
	})
	w.logger.Info("ticket processed",
		"ticket_id", ticketID,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// handle runs fetch, validate, enrich and store for one message and returns
// the ticket id once known.
func (w *Worker) handle(ctx context.Context, msg queue.Message) (string, error) {
	bucket, key, err := w.resolveObject(msg.Body)
	if err != nil {
		return "", err
	}

	payload, err := w.timed("fetch", func() ([]byte, error) {
		return w.objects.GetObject(ctx, bucket, key)
	})
	if err != nil {
		return "", pkgerrors.Wrapf(pkgerrors.ErrFetch, "get %s/%s: %v", bucket, key, err)
	}
	if !json.Valid(payload) {
		return "", pkgerrors.Wrapf(pkgerrors.ErrFetch, "object %s/%s is not valid JSON", bucket, key)
	}

	ticket, err := schema.ValidateRawTicket(payload)
	if err != nil {
		return "", err
	}
	ctx = logger.WithTicketID(ctx, ticket.TicketID)

	enrichStart := time.Now()
	enrichment, err := w.enricher.Enrich(ctx, ticket)
	w.observeStage("enrich", time.Since(enrichStart))
	if err != nil {
		return ticket.TicketID, err
	}

	enriched := schema.BuildEnrichedTicket(ticket, enrichment)
	storeStart := time.Now()
	err = w.store.StoreResults(ctx, enriched)
	w.observeStage("store", time.Since(storeStart))
	if err != nil {
		return ticket.TicketID, err
	}

	w.track(analytics.ProcessedEvent{
		Type:         analytics.EventTicketProcessed,
		TicketID:     ticket.TicketID,
		Intent:       enrichment.Intent,
		Urgency:      enrichment.Urgency,
		Sentiment:    enrichment.Sentiment,
		ModelVersion: enrichment.ModelVersion,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Consumer:     w.queueCfg.Consumer,
	})
	return ticket.TicketID, nil
}

// resolveObject extracts the object-store location from the notification
// body.
func (w *Worker) resolveObject(body []byte) (bucket, key string, err error) {
	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		return "", "", pkgerrors.Wrapf(pkgerrors.ErrMalformedNotification, "decode notification: %v", err)
	}
	if len(n.Records) == 0 {
		return "", "", pkgerrors.Wrapf(pkgerrors.ErrMalformedNotification, "notification has no records")
	}
	rec := n.Records[0]
	if rec.Key == "" {
		return "", "", pkgerrors.Wrapf(pkgerrors.ErrMalformedNotification, "notification record has no object key")
	}
	bucket = rec.Bucket
	if bucket == "" {
		bucket = w.buckets.RawBucket
	}
	return bucket, rec.Key, nil
}

func (w *Worker) timed(stage string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	w.observeStage(stage, time.Since(start))
	return out, err
}

func (w *Worker) observeStage(stage string, d time.Duration) {
	w.count(func(m *metrics.Metrics) {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	})
}

func (w *Worker) track(event analytics.ProcessedEvent) {
	if w.tracker == nil {
		return
	}
	w.tracker.Track(event)
}

func (w *Worker) count(fn func(m *metrics.Metrics)) {
	if w.metrics == nil {
		return
	}
	fn(w.metrics)
}
