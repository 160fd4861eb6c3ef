package domain

import "context"

// Chunker splits a document into overlapping bounded-size chunks.
type Chunker interface {
	Split(document Document) ([]Chunk, error)
}

// Embedder converts free text into a fixed-dimension vector
// representation. ModelName identifies the embedding space; vectors
// produced by different models must never share a store.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// StoreMetadata identifies the embedding space of a vector store. It is
// persisted alongside the index and validated on load and search.
type StoreMetadata struct {
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
}

// VectorStore persists embedded chunks and supports similarity search.
// Build is all-or-nothing: a store is either empty or fully built.
// Search returns up to k candidates in descending similarity order with
// ties broken by insertion order.
type VectorStore interface {
	Build(ctx context.Context, meta StoreMetadata, chunks []EmbeddedChunk) error
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
	Meta() (StoreMetadata, bool)
	Count() int
}
