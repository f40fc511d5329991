// Package analytics publishes per-ticket processing events to Kafka for
// downstream dashboards. Publishing is fire-and-forget from the worker's
// point of view: a full buffer or a broker error never fails a ticket.
package analytics

type EventType string

const (
	EventTicketProcessed EventType = "ticket_processed"
	EventTicketFailed    EventType = "ticket_failed"
)

// ProcessedEvent describes one terminal processing outcome.
type ProcessedEvent struct {
	Type         EventType `json:"type"`
	TicketID     string    `json:"ticket_id"`
	Stage        string    `json:"stage,omitempty"`
	Intent       string    `json:"intent,omitempty"`
	Urgency      string    `json:"urgency,omitempty"`
	Sentiment    string    `json:"sentiment,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	Timestamp    string    `json:"timestamp"`
	Consumer     string    `json:"consumer"`
}
