// Package chromem persists the chunk index in a chromem-go database
// under a directory, with a sidecar metadata file recording the
// embedding model the index was built with.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	chromemgo "github.com/philippgille/chromem-go"

	"brdgen/internal/domain"
)

const (
	collectionName = "chunks"
	metadataFile   = "store.json"
)

// Store is a persistent vector store backed by chromem-go.
type Store struct {
	location string
	db       *chromemgo.DB
	coll     *chromemgo.Collection
	meta     domain.StoreMetadata
	built    bool
}

// Exists reports whether a store is present at the location. Presence
// and non-emptiness of the directory is the sole existence signal the
// caching policy consumes; contents are not hash-compared, so callers
// must use distinct locations per distinct document set.
func Exists(location string) bool {
	entries, err := os.ReadDir(location)
	return err == nil && len(entries) > 0
}

// Create prepares an empty store at the location. Build must be called
// before the store can serve searches.
func Create(location string) (*Store, error) {
	db, err := chromemgo.NewPersistentDB(location, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	return &Store{location: location, db: db}, nil
}

// Open loads an existing store from the location. It returns
// domain.ErrStoreNotFound when the location is absent or empty.
func Open(location string) (*Store, error) {
	if !Exists(location) {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, location)
	}
	db, err := chromemgo.NewPersistentDB(location, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	meta, err := readMetadata(location)
	if err != nil {
		return nil, fmt.Errorf("store metadata unreadable at %s: %w", location, err)
	}
	coll := db.GetCollection(collectionName, nil)
	if coll == nil || coll.Count() == 0 {
		return nil, fmt.Errorf("%w: %s has no indexed chunks", domain.ErrStoreNotFound, location)
	}
	return &Store{location: location, db: db, coll: coll, meta: meta, built: true}, nil
}

// Build indexes the embedded chunks all-or-nothing: on any failure the
// partially written collection and metadata are removed so the location
// never exposes a half-built store.
func (s *Store) Build(ctx context.Context, meta domain.StoreMetadata, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to index")
	}
	if meta.EmbeddingModel == "" {
		return errors.New("store metadata requires an embedding model identifier")
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

	_ = s.db.DeleteCollection(collectionName)
	coll, err := s.db.CreateCollection(collectionName, map[string]string{"embedding_model": meta.EmbeddingModel}, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromemgo.Document, 0, len(chunks))
	for _, ec := range chunks {
		docs = append(docs, chromemgo.Document{
			ID: ec.Chunk.ChunkID(),
			Metadata: map[string]string{
				"document_id": ec.Chunk.DocumentID,
				"index":       strconv.Itoa(ec.Chunk.Index),
				"start":       strconv.Itoa(ec.Chunk.Start),
				"end":         strconv.Itoa(ec.Chunk.End),
			},
			Embedding: ec.Vector,
			Content:   ec.Chunk.Text,
		})
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		s.discard()
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	if err := writeMetadata(s.location, meta); err != nil {
		s.discard()
		return fmt.Errorf("failed to persist store metadata: %w", err)
	}
	s.coll = coll
	s.meta = meta
	s.built = true
	return nil
}

func (s *Store) discard() {
	_ = s.db.DeleteCollection(collectionName)
	_ = os.Remove(filepath.Join(s.location, metadataFile))
	s.coll = nil
	s.built = false
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if !s.built || s.coll == nil {
		return nil, domain.ErrStoreEmpty
	}
	if len(vector) != s.meta.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d, store dimension %d",
			domain.ErrModelMismatch, len(vector), s.meta.Dimension)
	}
	if k <= 0 {
		k = 5
	}
	n := k
	if count := s.coll.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}
	results, err := s.coll.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, domain.SearchResult{
			Chunk:  chunkFromResult(r),
			Vector: r.Embedding,
			Score:  float64(r.Similarity),
		})
	}
	return out, nil
}

func (s *Store) Meta() (domain.StoreMetadata, bool) { return s.meta, s.built }

func (s *Store) Count() int {
	if s.coll == nil {
		return 0
	}
	return s.coll.Count()
}

func chunkFromResult(r chromemgo.Result) domain.Chunk {
	index, _ := strconv.Atoi(r.Metadata["index"])
	start, _ := strconv.Atoi(r.Metadata["start"])
	end, _ := strconv.Atoi(r.Metadata["end"])
	return domain.Chunk{
		DocumentID: r.Metadata["document_id"],
		Index:      index,
		Text:       r.Content,
		Start:      start,
		End:        end,
	}
}

func readMetadata(location string) (domain.StoreMetadata, error) {
	var meta domain.StoreMetadata
	f, err := os.Open(filepath.Join(location, metadataFile))
	if err != nil {
		return meta, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&meta)
	return meta, err
}

func writeMetadata(location string, meta domain.StoreMetadata) error {
	f, err := os.Create(filepath.Join(location, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(meta)
}
