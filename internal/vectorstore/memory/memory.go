// Package memory provides a non-persistent vector store using
// brute-force cosine similarity. It backs the memory store type and the
// test suites; persistence and the load-from-location cache policy live
// in the chromem store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"brdgen/internal/domain"
	"brdgen/internal/vectorstore"
)

// Store keeps embedded chunks in insertion order. Search ties are broken
// by that order.
type Store struct {
	mu     sync.RWMutex
	meta   domain.StoreMetadata
	built  bool
	chunks []domain.EmbeddedChunk
}

func New() *Store { return &Store{} }

// Build replaces the store contents atomically. A failed build leaves
// the store empty rather than partially filled.
func (s *Store) Build(_ context.Context, meta domain.StoreMetadata, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to index")
	}
	if meta.Dimension == 0 {
		meta.Dimension = len(chunks[0].Vector)
	}
	for _, ec := range chunks {
		if len(ec.Vector) != meta.Dimension {
			return fmt.Errorf("vector dimension mismatch: chunk %s has %d, store has %d",
				ec.Chunk.ChunkID(), len(ec.Vector), meta.Dimension)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	s.chunks = append([]domain.EmbeddedChunk(nil), chunks...)
	s.built = true
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.built {
		return nil, domain.ErrStoreEmpty
	}
	if len(vector) != s.meta.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d, store dimension %d",
			domain.ErrModelMismatch, len(vector), s.meta.Dimension)
	}
	if k <= 0 {
		k = 5
	}
	results := make([]domain.SearchResult, 0, len(s.chunks))
	for _, ec := range s.chunks {
		results = append(results, domain.SearchResult{
			Chunk:  ec.Chunk,
			Vector: ec.Vector,
			Score:  vectorstore.Cosine(ec.Vector, vector),
		})
	}
	// Stable keeps insertion order on equal scores.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (s *Store) Meta() (domain.StoreMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta, s.built
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
