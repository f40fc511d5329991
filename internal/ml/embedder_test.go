package ml

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
)

func ticketWithText(subject, body string) *schema.RawTicket {
	return &schema.RawTicket{
		TicketID:   "T-1",
		Subject:    subject,
		Body:       body,
		CustomerID: "C-1",
	}
}

func TestEmbedDimension(t *testing.T) {
	e := NewEmbedder(0)
	if e.Dimension() != DefaultEmbeddingDim {
		t.Fatalf("Dimension() = %d, want %d", e.Dimension(), DefaultEmbeddingDim)
	}
	vec := e.Embed(ticketWithText("Cannot login", "invalid credentials error"))
	if len(vec) != DefaultEmbeddingDim {
		t.Fatalf("Embed() returned %d dims, want %d", len(vec), DefaultEmbeddingDim)
	}
}

func TestEmbedEmptyTicketReturnsZeroVector(t *testing.T) {
	e := NewEmbedder(DefaultEmbeddingDim)
	vec := e.Embed(ticketWithText("", ""))
	if len(vec) != DefaultEmbeddingDim {
		t.Fatalf("Embed() returned %d dims, want %d", len(vec), DefaultEmbeddingDim)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("empty ticket embedding has non-zero value %f at index %d", v, i)
		}
	}
}

func TestEmbedIsNormalized(t *testing.T) {
	e := NewEmbedder(DefaultEmbeddingDim)
	vec := e.Embed(ticketWithText("Payment failed", "I was charged twice for my subscription renewal"))
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
		t.Errorf("embedding norm = %f, want 1.0", math.Sqrt(norm))
	}
}

func TestEmbedIsDeterministic(t *testing.T) {
	e := NewEmbedder(DefaultEmbeddingDim)
	ticket := ticketWithText("Cannot login to my account", "invalid credentials error for an hour")
	first := e.Embed(ticket)
	second := e.Embed(ticket)
	if !reflect.DeepEqual(first, second) {
		t.Error("embedding the same ticket twice produced different vectors")
	}
}

func TestEmbedSimilarTicketsScoreHigherThanUnrelated(t *testing.T) {
	e := NewEmbedder(DefaultEmbeddingDim)
	login1 := e.Embed(ticketWithText("Cannot login to my account", "password rejected with invalid credentials error"))
	login2 := e.Embed(ticketWithText("Login broken", "my password and credentials stopped working, login fails"))
	unrelated := e.Embed(ticketWithText("Invoice question", "my quarterly invoice shows the wrong amount"))

	related := CosineSimilarity(login1, login2)
	distant := CosineSimilarity(login1, unrelated)
	if related <= distant {
		t.Errorf("similarity of related tickets (%f) should exceed unrelated (%f)", related, distant)
	}
}

func TestCosineSimilarityIdentity(t *testing.T) {
	e := NewEmbedder(DefaultEmbeddingDim)
	vec := e.Embed(ticketWithText("Export is broken", "exporting my documents produces corrupted files"))
	if sim := CosineSimilarity(vec, vec); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("self-similarity = %f, want 1.0", sim)
	}
}

func TestEmbedBatchMatchesSingleEmbeds(t *testing.T) {
	e := NewEmbedder(DefaultEmbeddingDim)
	tickets := []*schema.RawTicket{
		ticketWithText("Cannot login", "credentials rejected"),
		ticketWithText("", ""),
		ticketWithText("Feature request", "please add dark mode support"),
	}
	got, err := e.EmbedBatch(context.Background(), tickets, 2)
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	if len(got) != len(tickets) {
		t.Fatalf("EmbedBatch() returned %d vectors, want %d", len(got), len(tickets))
	}
	for i, ticket := range tickets {
		if want := e.Embed(ticket); !reflect.DeepEqual(got[i], want) {
			t.Errorf("batch vector %d differs from single-ticket embedding", i)
		}
	}
}
