package chromem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"brdgen/internal/domain"
)

func testChunks() []domain.EmbeddedChunk {
	return []domain.EmbeddedChunk{
		{
			Chunk:  domain.Chunk{DocumentID: "d1", Index: 0, Text: "objectives and scope", Start: 0, End: 20},
			Vector: []float32{1, 0, 0},
		},
		{
			Chunk:  domain.Chunk{DocumentID: "d1", Index: 1, Text: "risks and mitigations", Start: 15, End: 36},
			Vector: []float32{0, 1, 0},
		},
		{
			Chunk:  domain.Chunk{DocumentID: "d2", Index: 0, Text: "acceptance criteria", Start: 0, End: 19},
			Vector: []float32{0, 0, 1},
		},
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	require.False(t, Exists(filepath.Join(dir, "missing")))
	require.False(t, Exists(dir)) // present but empty

	store, err := Create(filepath.Join(dir, "index"))
	require.NoError(t, err)
	meta := domain.StoreMetadata{EmbeddingModel: "test-model"}
	require.NoError(t, store.Build(context.Background(), meta, testChunks()))
	require.True(t, Exists(filepath.Join(dir, "index")))
}

func TestOpen_MissingLocation(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestBuild_RequiresModelIdentifier(t *testing.T) {
	store, err := Create(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	require.Error(t, store.Build(context.Background(), domain.StoreMetadata{}, testChunks()))
}

func TestBuildOpenSearch_Roundtrip(t *testing.T) {
	location := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	store, err := Create(location)
	require.NoError(t, err)
	_, built := store.Meta()
	require.False(t, built)

	meta := domain.StoreMetadata{EmbeddingModel: "test-model"}
	require.NoError(t, store.Build(ctx, meta, testChunks()))
	require.Equal(t, 3, store.Count())

	first, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "d1", first[0].Chunk.DocumentID)
	require.Equal(t, 0, first[0].Chunk.Index)
	require.Equal(t, "objectives and scope", first[0].Chunk.Text)
	require.Equal(t, 0, first[0].Chunk.Start)
	require.Equal(t, 20, first[0].Chunk.End)

	// a fresh handle on the same location serves identical results
	// without rebuilding
	reopened, err := Open(location)
	require.NoError(t, err)
	gotMeta, built := reopened.Meta()
	require.True(t, built)
	require.Equal(t, "test-model", gotMeta.EmbeddingModel)
	require.Equal(t, 3, gotMeta.Dimension)
	require.Equal(t, 3, reopened.Count())

	second, err := reopened.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, first[0].Chunk, second[0].Chunk)
	require.Equal(t, first[1].Chunk, second[1].Chunk)
}

func TestSearch_BeforeBuild(t *testing.T) {
	store, err := Create(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	_, err = store.Search(context.Background(), []float32{1, 0, 0}, 1)
	require.ErrorIs(t, err, domain.ErrStoreEmpty)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	store, err := Create(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	meta := domain.StoreMetadata{EmbeddingModel: "test-model"}
	require.NoError(t, store.Build(context.Background(), meta, testChunks()))

	_, err = store.Search(context.Background(), []float32{1, 0}, 1)
	require.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestSearch_KClampedToIndexSize(t *testing.T) {
	store, err := Create(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	meta := domain.StoreMetadata{EmbeddingModel: "test-model"}
	require.NoError(t, store.Build(context.Background(), meta, testChunks()))

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestBuild_MixedDimensionsRejected(t *testing.T) {
	store, err := Create(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	chunks := testChunks()
	chunks[1].Vector = []float32{1, 0}
	err = store.Build(context.Background(), domain.StoreMetadata{EmbeddingModel: "m"}, chunks)
	require.Error(t, err)
}
