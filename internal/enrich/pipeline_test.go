package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/supporthq/ticket-enrichment-platform/internal/ml"
	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	models, err := ml.New(config.ModelsConfig{Version: "9.9.9"})
	if err != nil {
		t.Fatalf("ml.New() error: %v", err)
	}
	return New(models)
}

func TestEnrichAssemblesAllSignals(t *testing.T) {
	p := newTestPipeline(t)

	ticket := &schema.RawTicket{
		TicketID:   "DEMO-100",
		Subject:    "Cannot login to my account",
		Body:       "I keep getting an invalid credentials error and this is frustrating.",
		Priority:   "high",
		CreatedAt:  1756400000,
		CustomerID: "CUST-100",
		Metadata:   schema.TicketMetadata{Source: "email", Language: "en", Tags: []string{}},
	}
	got, err := p.Enrich(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}

	if len(got.Embedding) != ml.DefaultEmbeddingDim {
		t.Errorf("embedding has %d dims, want %d", len(got.Embedding), ml.DefaultEmbeddingDim)
	}
	if got.Intent != "login_issue" {
		t.Errorf("intent = %q, want login_issue", got.Intent)
	}
	if got.Urgency != "high" || got.UrgencyConfidence != 1.0 {
		t.Errorf("urgency = (%q, %f), want (high, 1.0) from explicit priority", got.Urgency, got.UrgencyConfidence)
	}
	if got.Sentiment != ml.SentimentNegative {
		t.Errorf("sentiment = %q, want %q", got.Sentiment, ml.SentimentNegative)
	}
	if got.Summary != ticket.Subject {
		t.Errorf("summary = %q, want short-ticket subject %q", got.Summary, ticket.Subject)
	}
	if got.ModelVersion != "9.9.9" {
		t.Errorf("model version = %q, want 9.9.9", got.ModelVersion)
	}
}

func TestEnrichStampsRFC3339ProcessedAt(t *testing.T) {
	p := newTestPipeline(t)
	fixed := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	got, err := p.Enrich(context.Background(), &schema.RawTicket{
		TicketID: "DEMO-101",
		Subject:  "Export broken",
		Body:     "export fails",
	})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if got.ProcessedAt != "2026-08-28T15:04:05Z" {
		t.Errorf("ProcessedAt = %q, want fixed RFC3339 stamp", got.ProcessedAt)
	}
	if _, err := time.Parse(time.RFC3339, got.ProcessedAt); err != nil {
		t.Errorf("ProcessedAt %q is not RFC3339: %v", got.ProcessedAt, err)
	}
}

func TestEnrichEmptyTicketUsesFallbacks(t *testing.T) {
	p := newTestPipeline(t)

	got, err := p.Enrich(context.Background(), &schema.RawTicket{TicketID: "DEMO-102"})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	for i, v := range got.Embedding {
		if v != 0 {
			t.Fatalf("empty ticket embedding non-zero at %d", i)
		}
	}
	if got.Intent != ml.IntentGeneralInquiry || got.IntentConfidence != 0.0 {
		t.Errorf("intent = (%q, %f), want (%q, 0.0)", got.Intent, got.IntentConfidence, ml.IntentGeneralInquiry)
	}
	if got.Urgency != "medium" {
		t.Errorf("urgency = %q, want medium default", got.Urgency)
	}
	if got.Sentiment != ml.SentimentNeutral {
		t.Errorf("sentiment = %q, want %q", got.Sentiment, ml.SentimentNeutral)
	}
	if got.Summary != "" {
		t.Errorf("summary = %q, want empty for empty ticket", got.Summary)
	}
}

func TestEnrichIsDeterministic(t *testing.T) {
	p := newTestPipeline(t)
	p.now = func() time.Time { return time.Unix(1756400000, 0) }

	ticket := &schema.RawTicket{
		TicketID: "DEMO-103",
		Subject:  "Data not syncing across devices",
		Body: "My documents are not syncing between my laptop and my phone. " +
			"Changes made hours ago still do not appear on the other device.",
	}
	first, err := p.Enrich(context.Background(), ticket)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Enrich(context.Background(), ticket)
	if err != nil {
		t.Fatal(err)
	}
	if first.Intent != second.Intent || first.Summary != second.Summary ||
		first.Sentiment != second.Sentiment || first.Urgency != second.Urgency {
		t.Error("enrichment differs between identical runs")
	}
}
