package ml

import (
	"context"
	"hash/fnv"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
)

// DefaultEmbeddingDim is the dimensionality every ticket embedding carries.
const DefaultEmbeddingDim = 384

// Embedder computes fixed-dimension semantic vectors from ticket text using
// signed feature hashing over stemmed term frequencies. Vectors are
// L2-normalised so dot products are cosine similarities. Inference is
// deterministic and stateless, so one Embedder is safely shared across
// goroutines.
type Embedder struct {
	dim int
}

// NewEmbedder creates an Embedder producing vectors of the given dimension;
// non-positive values fall back to DefaultEmbeddingDim.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &Embedder{dim: dim}
}

// Dimension returns the embedding dimensionality.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Embed returns the embedding for one ticket. A ticket with an empty subject
// and body gets the documented fallback, a zero vector, without touching the
// hashing path.
func (e *Embedder) Embed(ticket *schema.RawTicket) []float64 {
	vec := make([]float64, e.dim)
	text := joinSubjectBody(ticket.Subject, ticket.Body)
	if text == "" {
		return vec
	}

	for _, token := range tokenize(text) {
		idx, sign := e.slot(token)
		vec[idx] += sign
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// EmbedBatch embeds many tickets with bounded parallelism. The single-ticket
// worker path does not use it; it exists for bulk backfills.
func (e *Embedder) EmbedBatch(ctx context.Context, tickets []*schema.RawTicket, parallelism int) ([][]float64, error) {
	if parallelism <= 0 {
		parallelism = 1
	}
	out := make([][]float64, len(tickets))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, ticket := range tickets {
		i, ticket := i, ticket
		g.Go(func() error {
			out[i] = e.Embed(ticket)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// slot maps a token to a vector index and a +1/-1 sign. The sign hash keeps
// the expected contribution of colliding terms at zero.
func (e *Embedder) slot(token string) (int, float64) {
	h := fnv.New64a()
	h.Write([]byte(token))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dim))
	sign := 1.0
	if sum&(1<<63) != 0 {
		sign = -1.0
	}
	return idx, sign
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either vector is all zeros or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
