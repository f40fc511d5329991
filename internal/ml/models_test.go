package ml

import (
	"path/filepath"
	"testing"

	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
)

func TestNewFillsDefaults(t *testing.T) {
	m, err := New(config.ModelsConfig{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if m.Embedder.Dimension() != DefaultEmbeddingDim {
		t.Errorf("embedder dimension = %d, want %d", m.Embedder.Dimension(), DefaultEmbeddingDim)
	}
	if m.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", m.Version)
	}
}

func TestNewCreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	if _, err := New(config.ModelsConfig{CacheDir: dir}); err != nil {
		t.Fatalf("New() error: %v", err)
	}
}

func TestPreload(t *testing.T) {
	m, err := New(config.ModelsConfig{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := m.Preload(); err != nil {
		t.Fatalf("Preload() error: %v", err)
	}
	// Second call must be a no-op returning the cached result.
	if err := m.Preload(); err != nil {
		t.Fatalf("second Preload() error: %v", err)
	}
}
