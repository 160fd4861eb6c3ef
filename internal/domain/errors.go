package domain

import "errors"

var (
	// ErrUnsupportedFormat marks a file whose extension is not recognized.
	// The batch pipeline skips such documents and continues.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailure marks a file whose text extraction failed.
	ErrExtractionFailure = errors.New("text extraction failed")

	// ErrEmptyDocument marks a document with no extractable text.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrModelMismatch is returned when a store built with one embedding
	// model is queried through a different one. Mismatched models would
	// silently corrupt distance semantics, so this is always fatal.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrStoreNotFound is returned when loading a vector store from a
	// location that does not exist or is empty.
	ErrStoreNotFound = errors.New("vector store not found")

	// ErrStoreEmpty is returned when searching a store that has not been
	// built. A store is either empty or fully built; partial builds are
	// never exposed to search.
	ErrStoreEmpty = errors.New("vector store is empty")

	// ErrGenerationService marks a failure of the external completion
	// service after retries were exhausted.
	ErrGenerationService = errors.New("generation service failure")

	// ErrNoCurrentBRD is returned when refine is invoked before any BRD
	// has been generated in the session.
	ErrNoCurrentBRD = errors.New("no existing BRD to refine")
)
