// Package embedding maps text to fixed-dimension vectors through
// external embedding models.
package embedding

import (
	"context"

	"brdgen/internal/domain"
)

// Embedder is the domain embedding contract, re-exported for the
// implementation subpackages.
type Embedder = domain.Embedder

// EmbedAll embeds every chunk with the given embedder. It fails on the
// first error so a partial result never reaches a store build.
func EmbedAll(ctx context.Context, e Embedder, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))
	for _, ch := range chunks {
		vec, err := e.Embed(ctx, ch.Text)
		if err != nil {
			return nil, err
		}
		embedded = append(embedded, domain.EmbeddedChunk{Chunk: ch, Vector: vec})
	}
	return embedded, nil
}
