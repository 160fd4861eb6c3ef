package domain

import "strconv"

// Document is a single assessment report loaded into the system.
// It is created at ingestion and never mutated afterwards.
type Document struct {
	ID         string
	SourcePath string
	RawText    string
}

// Chunk is a bounded-length segment of a document used for indexing.
// Start and End are rune offsets into the cleaned document text;
// consecutive chunks of the same document overlap by the chunker's
// configured overlap.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Start      int
	End        int
}

// ChunkID returns the stable identity of a chunk within a store.
func (c Chunk) ChunkID() string {
	return c.DocumentID + ":" + strconv.Itoa(c.Index)
}

// EmbeddedChunk pairs a chunk with its embedding vector. All vectors
// inside one store share the same dimension.
type EmbeddedChunk struct {
	Chunk  Chunk
	Vector []float32
}

// SearchResult is a matching chunk with its similarity score and the
// vector it was indexed under. Retrieval strategies may reorder results,
// so the order of a result slice is the strategy's ranking, not
// necessarily raw similarity order.
type SearchResult struct {
	Chunk  Chunk
	Vector []float32
	Score  float64
}

// ConversationState holds the active assessment and the most recently
// produced BRD for one refinement session. Zero values mean "absent".
type ConversationState struct {
	CurrentAssessment string
	CurrentBRD        string
}

// HasBRD reports whether a BRD has been generated in this session.
func (s ConversationState) HasBRD() bool { return s.CurrentBRD != "" }

// ValidationResult is the outcome of the validation agent for one
// generated BRD.
type ValidationResult struct {
	IsValid bool
	Report  string
}
