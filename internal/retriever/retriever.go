// Package retriever implements diversity-aware chunk retrieval over a
// vector store using maximal marginal relevance.
package retriever

import (
	"context"
	"fmt"
	"math"

	"brdgen/internal/domain"
	"brdgen/internal/vectorstore"
)

const (
	// DefaultTopK is the number of chunks returned when none is requested.
	DefaultTopK = 5
	// DefaultLambda balances relevance against redundancy.
	DefaultLambda = 0.5
)

// Retriever wraps a vector store with an MMR search strategy. The query
// is embedded with the same model the store was built with; a mismatch
// fails fast instead of executing with garbage distances.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	topK     int
	lambda   float64
}

func New(embedder domain.Embedder, store domain.VectorStore, topK int, lambda float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if lambda < 0 || lambda > 1 {
		lambda = DefaultLambda
	}
	return &Retriever{embedder: embedder, store: store, topK: topK, lambda: lambda}
}

// Search returns up to the configured number of chunks ranked by MMR.
func (r *Retriever) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	return r.search(ctx, query, "", r.topK, r.lambda)
}

// SearchDocument restricts the MMR selection to chunks of one document.
func (r *Retriever) SearchDocument(ctx context.Context, query, documentID string) ([]domain.SearchResult, error) {
	return r.search(ctx, query, documentID, r.topK, r.lambda)
}

// SearchWith runs MMR with explicit k and lambda, overriding the
// configured defaults.
func (r *Retriever) SearchWith(ctx context.Context, query string, k int, lambda float64) ([]domain.SearchResult, error) {
	return r.search(ctx, query, "", k, lambda)
}

// TopK is the naive similarity-order fallback without diversity
// re-ranking.
func (r *Retriever) TopK(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Search(ctx, vec, k)
}

func (r *Retriever) search(ctx context.Context, query, documentID string, k int, lambda float64) ([]domain.SearchResult, error) {
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	// MMR scores every indexed chunk against the query, so fetch the
	// whole index as the candidate set.
	candidates, err := r.store.Search(ctx, vec, r.store.Count())
	if err != nil {
		return nil, err
	}
	if documentID != "" {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.Chunk.DocumentID == documentID {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	return MaximalMarginalRelevance(candidates, k, lambda), nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if meta, built := r.store.Meta(); built && meta.EmbeddingModel != r.embedder.ModelName() {
		return nil, fmt.Errorf("%w: store built with %q, query embedder is %q",
			domain.ErrModelMismatch, meta.EmbeddingModel, r.embedder.ModelName())
	}
	return r.embedder.Embed(ctx, query)
}

// MaximalMarginalRelevance greedily selects the candidate maximizing
// lambda*sim(candidate, query) - (1-lambda)*maxSim(candidate, selected)
// until k chunks are chosen or the candidates are exhausted. Candidates
// must arrive in descending query-similarity order; exact score ties
// keep that order.
func MaximalMarginalRelevance(candidates []domain.SearchResult, k int, lambda float64) []domain.SearchResult {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	selected := make([]domain.SearchResult, 0, k)
	remaining := make([]int, len(candidates))
	for i := range remaining {
		remaining[i] = i
	}
	for len(selected) < k && len(remaining) > 0 {
		bestPos := 0
		bestScore := math.Inf(-1)
		for pos, idx := range remaining {
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
				for _, s := range selected {
					if sim := vectorstore.Cosine(candidates[idx].Vector, s.Vector); sim > redundancy {
						redundancy = sim
					}
				}
			}
			score := lambda*candidates[idx].Score - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}
		selected = append(selected, candidates[remaining[bestPos]])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}
