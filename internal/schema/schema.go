// Package schema defines the ticket record shapes flowing through the
// pipeline and validates inbound raw payloads.
package schema

// TicketMetadata carries producer-supplied ticket metadata.
type TicketMetadata struct {
	Source   string   `json:"source"`
	Language string   `json:"language"`
	Tags     []string `json:"tags"`
}

// RawTicket is an unprocessed support ticket as uploaded by the producer.
// CreatedAt is a Unix timestamp and must arrive as a JSON integer; the row
// store's range key depends on its numeric ordering.
type RawTicket struct {
	TicketID   string         `json:"ticket_id"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Priority   string         `json:"priority,omitempty"`
	CreatedAt  int64          `json:"created_at"`
	CustomerID string         `json:"customer_id"`
	Metadata   TicketMetadata `json:"metadata"`
}

// EnrichmentData holds the ML-derived signals for one ticket. ProcessedAt is
// an RFC3339 string, deliberately a different representation from the raw
// ticket's numeric CreatedAt.
type EnrichmentData struct {
	Embedding           []float64 `json:"embedding"`
	Intent              string    `json:"intent"`
	IntentConfidence    float64   `json:"intent_confidence"`
	Urgency             string    `json:"urgency"`
	UrgencyConfidence   float64   `json:"urgency_confidence"`
	Sentiment           string    `json:"sentiment"`
	SentimentConfidence float64   `json:"sentiment_confidence"`
	Summary             string    `json:"summary"`
	ProcessedAt         string    `json:"processed_at"`
	ModelVersion        string    `json:"model_version"`
}

// EnrichedTicket is the composite written to the enriched object store: the
// raw ticket fields flattened, plus the enrichment block.
type EnrichedTicket struct {
	TicketID   string         `json:"ticket_id"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Priority   string         `json:"priority,omitempty"`
	CreatedAt  int64          `json:"created_at"`
	CustomerID string         `json:"customer_id"`
	Metadata   TicketMetadata `json:"metadata"`
	Enrichment EnrichmentData `json:"enrichment"`
}

// BuildEnrichedTicket copies every raw field unchanged and attaches the
// enrichment. Inputs are assumed already validated.
func BuildEnrichedTicket(raw *RawTicket, enrichment EnrichmentData) *EnrichedTicket {
	return &EnrichedTicket{
		TicketID:   raw.TicketID,
		Subject:    raw.Subject,
		Body:       raw.Body,
		Priority:   raw.Priority,
		CreatedAt:  raw.CreatedAt,
		CustomerID: raw.CustomerID,
		Metadata:   raw.Metadata,
		Enrichment: enrichment,
	}
}

// ObjectKey is the enriched-bucket key for a ticket. Reprocessing the same
// ticket overwrites the prior object at this key.
func (t *EnrichedTicket) ObjectKey() string {
	return t.TicketID + ".json"
}

// RowItem is the embedding-free projection persisted to the row store, keyed
// by (ticket_id, created_at) with urgency indexed for range queries.
type RowItem struct {
	TicketID            string
	CreatedAt           int64
	Subject             string
	Body                string
	Priority            string
	CustomerID          string
	Source              string
	Language            string
	Tags                []string
	Intent              string
	IntentConfidence    float64
	Urgency             string
	UrgencyConfidence   float64
	Sentiment           string
	SentimentConfidence float64
	Summary             string
	ProcessedAt         string
	ModelVersion        string
	ObjectKey           string
}

// RowItemFromEnriched projects an enriched ticket into its row-store shape,
// dropping the embedding.
func RowItemFromEnriched(t *EnrichedTicket) RowItem {
	return RowItem{
		TicketID:            t.TicketID,
		CreatedAt:           t.CreatedAt,
		Subject:             t.Subject,
		Body:                t.Body,
		Priority:            t.Priority,
		CustomerID:          t.CustomerID,
		Source:              t.Metadata.Source,
		Language:            t.Metadata.Language,
		Tags:                t.Metadata.Tags,
		Intent:              t.Enrichment.Intent,
		IntentConfidence:    t.Enrichment.IntentConfidence,
		Urgency:             t.Enrichment.Urgency,
		UrgencyConfidence:   t.Enrichment.UrgencyConfidence,
		Sentiment:           t.Enrichment.Sentiment,
		SentimentConfidence: t.Enrichment.SentimentConfidence,
		Summary:             t.Enrichment.Summary,
		ProcessedAt:         t.Enrichment.ProcessedAt,
		ModelVersion:        t.Enrichment.ModelVersion,
		ObjectKey:           t.ObjectKey(),
	}
}
