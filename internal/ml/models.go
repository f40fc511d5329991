// Package ml is the model access layer: three independent scoring and
// generation capabilities (embedder, classifier, summarizer) behind explicit
// constructors. All inference here is pure Go, deterministic, and reentrant,
// so one Models bundle is shared by every worker goroutine without locking.
// Each capability degrades to a documented fallback value instead of
// returning an error; only the pipeline decides what fails a ticket.
package ml

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
)

// Models bundles the three capabilities and the version stamped on every
// enrichment.
type Models struct {
	Embedder   *Embedder
	Classifier *Classifier
	Summarizer *Summarizer
	Version    string

	warmOnce sync.Once
	warmErr  error
}

// New constructs the full model bundle from config. Construction is cheap;
// call Preload at startup to pay any remaining warm-up cost before the
// worker starts consuming.
func New(cfg config.ModelsConfig) (*Models, error) {
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating model cache dir %s: %w", cfg.CacheDir, err)
		}
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}
	return &Models{
		Embedder:   NewEmbedder(cfg.EmbeddingDim),
		Classifier: NewClassifier(cfg),
		Summarizer: NewSummarizer(cfg),
		Version:    version,
	}, nil
}

// Preload runs each capability once against a fixture ticket so regex
// compilation and lexicon state are exercised before the first real message.
// It is safe to call more than once; only the first call does work.
func (m *Models) Preload() error {
	m.warmOnce.Do(func() {
		fixture := &schema.RawTicket{
			TicketID: "warmup",
			Subject:  "Cannot login to my account",
			Body:     "I keep getting an invalid credentials error and need access urgently.",
		}
		embedding := m.Embedder.Embed(fixture)
		if len(embedding) != m.Embedder.Dimension() {
			m.warmErr = fmt.Errorf("embedder produced %d dims, want %d", len(embedding), m.Embedder.Dimension())
			return
		}
		_ = m.Classifier.Classify(fixture)
		_ = m.Summarizer.Summarize(fixture)
		slog.Info("models preloaded",
			"embedding_dim", m.Embedder.Dimension(),
			"version", m.Version,
		)
	})
	return m.warmErr
}
