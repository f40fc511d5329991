// Package enrich assembles the composite ML enrichment for one validated
// ticket: embedding, classification, and summary, stamped with the
// processing time and model version.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/supporthq/ticket-enrichment-platform/internal/ml"
	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	pkgerrors "github.com/supporthq/ticket-enrichment-platform/pkg/errors"
)

// Pipeline produces exactly one EnrichmentData per ticket. The three model
// calls are independent reads of the raw ticket; their order does not affect
// the result. There is no partial-success mode: any unrecovered model error
// fails the whole ticket.
type Pipeline struct {
	models *ml.Models
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline over an already-constructed model bundle.
func New(models *ml.Models) *Pipeline {
	return &Pipeline{
		models: models,
		logger: slog.Default().With("component", "enrich-pipeline"),
		now:    time.Now,
	}
}

// Enrich computes the full enrichment for a validated ticket.
func (p *Pipeline) Enrich(ctx context.Context, ticket *schema.RawTicket) (schema.EnrichmentData, error) {
	start := p.now()

	embedding := p.models.Embedder.Embed(ticket)
	if got, want := len(embedding), p.models.Embedder.Dimension(); got != want {
		return schema.EnrichmentData{}, pkgerrors.Wrapf(pkgerrors.ErrEnrichment,
			"embedding for %s has %d dims, want %d", ticket.TicketID, got, want)
	}

	classification := p.models.Classifier.Classify(ticket)
	summary := p.models.Summarizer.Summarize(ticket)

	enrichment := schema.EnrichmentData{
		Embedding:           embedding,
		Intent:              classification.Intent,
		IntentConfidence:    classification.IntentConfidence,
		Urgency:             classification.Urgency,
		UrgencyConfidence:   classification.UrgencyConfidence,
		Sentiment:           classification.Sentiment,
		SentimentConfidence: classification.SentimentConfidence,
		Summary:             summary,
		ProcessedAt:         p.now().UTC().Format(time.RFC3339),
		ModelVersion:        p.models.Version,
	}

	p.logger.Debug("ticket enriched",
		"ticket_id", ticket.TicketID,
		"intent", classification.Intent,
		"urgency", classification.Urgency,
		"sentiment", classification.Sentiment,
		"duration", p.now().Sub(start),
	)
	return enrichment, nil
}
