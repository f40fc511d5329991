// Package store persists enriched tickets to two targets with different
// fidelity: the full record (embedding included) goes to the enriched object
// bucket, and an embedding-free projection goes to the Postgres row store.
// Both writes are overwrite-by-key, so replaying a ticket is harmless.
package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	pkgerrors "github.com/supporthq/ticket-enrichment-platform/pkg/errors"
	"github.com/supporthq/ticket-enrichment-platform/pkg/metrics"
)

// ObjectWriter is the object-store surface the adapter needs.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// RowWriter is the row-store surface the adapter needs.
type RowWriter interface {
	PutItem(ctx context.Context, item schema.RowItem) error
}

// Store writes one EnrichedTicket to both targets.
type Store struct {
	objects        ObjectWriter
	rows           RowWriter
	enrichedBucket string
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// New creates a storage adapter. metrics may be nil in tests.
func New(objects ObjectWriter, rows RowWriter, enrichedBucket string, m *metrics.Metrics) *Store {
	return &Store{
		objects:        objects,
		rows:           rows,
		enrichedBucket: enrichedBucket,
		metrics:        m,
		logger:         slog.Default().With("component", "store"),
	}
}

// StoreResults attempts both writes in order: row store first, then object
// store. If either fails the whole call fails and the caller leaves the
// queue message for redelivery; a half-written ticket is simply overwritten
// on the retry. No transaction spans the two targets.
func (s *Store) StoreResults(ctx context.Context, enriched *schema.EnrichedTicket) error {
	item := schema.RowItemFromEnriched(enriched)
	if err := s.rows.PutItem(ctx, item); err != nil {
		s.countWrite("row", "error")
		return pkgerrors.Wrapf(pkgerrors.ErrStorage, "row store put for %s: %v", enriched.TicketID, err)
	}
	s.countWrite("row", "ok")

	payload, err := json.Marshal(enriched)
	if err != nil {
		s.countWrite("object", "error")
		return pkgerrors.Wrapf(pkgerrors.ErrStorage, "marshaling enriched ticket %s: %v", enriched.TicketID, err)
	}
	if err := s.objects.PutObject(ctx, s.enrichedBucket, enriched.ObjectKey(), payload); err != nil {
		s.countWrite("object", "error")
		return pkgerrors.Wrapf(pkgerrors.ErrStorage, "object store put for %s: %v", enriched.TicketID, err)
	}
	s.countWrite("object", "ok")

	s.logger.Debug("results stored",
		"ticket_id", enriched.TicketID,
		"bucket", s.enrichedBucket,
		"key", enriched.ObjectKey(),
	)
	return nil
}

func (s *Store) countWrite(target, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreWritesTotal.WithLabelValues(target, status).Inc()
}
