package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
)

// PostgresRows persists row items to a Postgres table keyed by
// (ticket_id, created_at), with urgency indexed for range queries.
type PostgresRows struct {
	db    *sql.DB
	table string
}

// NewPostgresRows creates a row writer for the given table.
func NewPostgresRows(db *sql.DB, table string) *PostgresRows {
	return &PostgresRows{db: db, table: table}
}

// EnsureSchema creates the ticket table and its urgency index when they do
// not exist yet. Safe to run concurrently from multiple workers.
func (p *PostgresRows) EnsureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ticket_id            TEXT NOT NULL,
			created_at           BIGINT NOT NULL,
			subject              TEXT NOT NULL,
			body                 TEXT NOT NULL,
			priority             TEXT,
			customer_id          TEXT NOT NULL,
			source               TEXT,
			language             TEXT,
			tags                 TEXT[],
			intent               TEXT NOT NULL,
			intent_confidence    DOUBLE PRECISION NOT NULL,
			urgency              TEXT NOT NULL,
			urgency_confidence   DOUBLE PRECISION NOT NULL,
			sentiment            TEXT NOT NULL,
			sentiment_confidence DOUBLE PRECISION NOT NULL,
			summary              TEXT,
			processed_at         TEXT NOT NULL,
			model_version        TEXT NOT NULL,
			object_key           TEXT NOT NULL,
			PRIMARY KEY (ticket_id, created_at)
		)`, p.table)
	if _, err := p.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("creating table %s: %w", p.table, err)
	}

	createIndex := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_urgency ON %s (urgency, created_at)`,
		p.table, p.table,
	)
	if _, err := p.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("creating urgency index on %s: %w", p.table, err)
	}
	return nil
}

// PutItem upserts one row item. A write with the same composite key replaces
// the prior row, which is what makes redelivered tickets harmless.
func (p *PostgresRows) PutItem(ctx context.Context, item schema.RowItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			ticket_id, created_at, subject, body, priority, customer_id,
			source, language, tags,
			intent, intent_confidence, urgency, urgency_confidence,
			sentiment, sentiment_confidence, summary,
			processed_at, model_version, object_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (ticket_id, created_at) DO UPDATE SET
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			priority = EXCLUDED.priority,
			customer_id = EXCLUDED.customer_id,
			source = EXCLUDED.source,
			language = EXCLUDED.language,
			tags = EXCLUDED.tags,
			intent = EXCLUDED.intent,
			intent_confidence = EXCLUDED.intent_confidence,
			urgency = EXCLUDED.urgency,
			urgency_confidence = EXCLUDED.urgency_confidence,
			sentiment = EXCLUDED.sentiment,
			sentiment_confidence = EXCLUDED.sentiment_confidence,
			summary = EXCLUDED.summary,
			processed_at = EXCLUDED.processed_at,
			model_version = EXCLUDED.model_version,
			object_key = EXCLUDED.object_key`, p.table)

	_, err := p.db.ExecContext(ctx, query,
		item.TicketID, item.CreatedAt, item.Subject, item.Body,
		nullableString(item.Priority), item.CustomerID,
		item.Source, item.Language, pq.Array(item.Tags),
		item.Intent, item.IntentConfidence, item.Urgency, item.UrgencyConfidence,
		item.Sentiment, item.SentimentConfidence, item.Summary,
		item.ProcessedAt, item.ModelVersion, item.ObjectKey,
	)
	if err != nil {
		return fmt.Errorf("upserting ticket %s: %w", item.TicketID, err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
