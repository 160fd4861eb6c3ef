// Package chunker splits documents into overlapping fixed-size segments.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"brdgen/internal/domain"
)

// CharacterChunker splits text into character-based chunks with overlap.
// The pipeline uses two independently tuned instances: one for the
// LLM-assisted extraction path and one for vector-store indexing.
type CharacterChunker struct {
	maxSize int
	overlap int
}

// NewCharacterChunker validates the configuration invariant
// 0 <= overlap < maxSize and returns a chunker.
func NewCharacterChunker(maxSize, overlap int) (*CharacterChunker, error) {
	if maxSize <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", maxSize, overlap)
	}
	return &CharacterChunker{maxSize: maxSize, overlap: overlap}, nil
}

// Split cuts the document text into chunks of at most maxSize runes.
// Consecutive chunks overlap by exactly the configured overlap, except
// possibly the final chunk. Documents shorter than maxSize produce a
// single chunk; empty documents are rejected.
func (c *CharacterChunker) Split(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.RawText) == "" {
		return nil, domain.ErrEmptyDocument
	}
	runes := []rune(document.RawText)
	step := c.maxSize - c.overlap
	var chunks []domain.Chunk
	start := 0
	for idx := 0; ; idx++ {
		end := start + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			Index:      idx,
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})
		if end == len(runes) {
			break
		}
		start += step
	}
	return chunks, nil
}
