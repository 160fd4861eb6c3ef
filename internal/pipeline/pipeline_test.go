package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"brdgen/internal/agents"
	"brdgen/internal/chunker"
	"brdgen/internal/domain"
	"brdgen/internal/llm"
	"brdgen/internal/retriever"
	"brdgen/internal/vectorstore/memory"
)

type fakeEmbedder struct{}

func (fakeEmbedder) ModelName() string { return "fake-embed" }

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)%7 + 1), 1, 2}, nil
}

// promptClient routes canned responses by prompt shape. A document
// whose marker appears in failOn makes the generation step fail; one in
// rejectOn makes validation return an empty report.
type promptClient struct {
	failOn   string
	rejectOn string
}

func (c *promptClient) Complete(_ context.Context, messages []llm.Message, _ llm.SamplingConfig) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "Extract the following key information"):
		return "KEY[" + markerIn(prompt) + "]", nil
	case strings.Contains(prompt, "expert SAP Business Requirements Document"):
		marker := markerIn(prompt)
		if c.failOn != "" && marker == c.failOn {
			return "", errors.New("generation backend unavailable")
		}
		return "BRD for " + marker, nil
	case strings.Contains(prompt, "Validate the following"):
		if c.rejectOn != "" && strings.Contains(prompt, "BRD for "+c.rejectOn) {
			return "", nil
		}
		return "consistent with the assessment", nil
	}
	return "", errors.New("unexpected prompt")
}

func markerIn(prompt string) string {
	for _, m := range []string{"alpha", "beta", "gamma", "delta"} {
		if strings.Contains(prompt, m) {
			return m
		}
	}
	return "unknown"
}

func testDoc(marker string) domain.Document {
	text := marker + " assessment covering objectives, requirements and risks of the migration"
	return domain.Document{ID: "doc-" + marker, SourcePath: marker + ".pdf", RawText: text}
}

func newTestPipeline(t *testing.T, client llm.Client, outputDir string) *Pipeline {
	t.Helper()
	indexChunker, err := chunker.NewCharacterChunker(512, 128)
	require.NoError(t, err)
	emb := fakeEmbedder{}
	store := memory.New()
	ag := agents.New(client, llm.SamplingConfig{Model: "test-model"})
	return New(Deps{
		IndexChunker: indexChunker,
		Embedder:     emb,
		Store:        store,
		Retriever:    retriever.New(emb, store, 5, 0.5),
		Agents:       ag,
	}, Options{
		Query:            "What are the objectives, requirements and risks of the assessment?",
		OutputDir:        outputDir,
		ExcerptMaxChars:  4000,
		ExcerptSentences: 12,
	})
}

// scenarioClient plays a full migration assessment through the agent
// chain, answering with a BRD that carries every standard section.
type scenarioClient struct {
	extractPrompts []string
}

func (c *scenarioClient) Complete(_ context.Context, messages []llm.Message, _ llm.SamplingConfig) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "Extract the following key information"):
		c.extractPrompts = append(c.extractPrompts, prompt)
		return "Business Objectives: migrate 3 legacy interfaces to S/4HANA by Q3\nConstraints and Limitations: data mapping gaps", nil
	case strings.Contains(prompt, "expert SAP Business Requirements Document"):
		var sb strings.Builder
		for _, section := range agents.StandardSections {
			sb.WriteString(section)
			sb.WriteString("\nThe migration of the 3 legacy interfaces to S/4HANA is due by Q3.\n")
		}
		return sb.String(), nil
	case strings.Contains(prompt, "Validate the following"):
		return "The BRD is consistent with the assessment.", nil
	}
	return "", errors.New("unexpected prompt")
}

func TestRun_MigrationScenario(t *testing.T) {
	outputDir := t.TempDir()
	client := &scenarioClient{}
	indexChunker, err := chunker.NewCharacterChunker(512, 128)
	require.NoError(t, err)
	emb := fakeEmbedder{}
	store := memory.New()
	p := New(Deps{
		IndexChunker: indexChunker,
		Embedder:     emb,
		Store:        store,
		Retriever:    retriever.New(emb, store, 1, 0.5),
		Agents:       agents.New(client, llm.SamplingConfig{Model: "test-model"}),
	}, Options{
		Query:            "What are the objectives, requirements and risks of the assessment?",
		OutputDir:        outputDir,
		ExcerptMaxChars:  4000,
		ExcerptSentences: 12,
	})
	ctx := context.Background()

	doc := domain.Document{
		ID:         "doc-migration",
		SourcePath: "migration.pdf",
		RawText:    "Objective: migrate 3 legacy interfaces to S/4HANA by Q3. Risk: data mapping gaps.",
	}
	require.NoError(t, p.Index(ctx, []domain.Document{doc}))

	results, err := p.RunDocuments(ctx, []domain.Document{doc})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// extraction saw the retrieved assessment content
	require.Len(t, client.extractPrompts, 1)
	require.Contains(t, client.extractPrompts[0], "S/4HANA")
	require.Contains(t, client.extractPrompts[0], "data mapping gaps")

	// the generated BRD covers all ten standard sections
	for _, section := range agents.StandardSections {
		require.Contains(t, results[0].BRD, section)
	}
	require.NotEmpty(t, results[0].Report)

	// persisted under the content-derived filename with the BRD as body
	wantName := "BRD_" + hashString(doc.RawText) + ".txt"
	require.Equal(t, wantName, filepath.Base(results[0].OutputPath))
	data, err := os.ReadFile(filepath.Join(outputDir, wantName))
	require.NoError(t, err)
	require.Equal(t, results[0].BRD, string(data))
}

func TestRunDocuments_HappyPath(t *testing.T) {
	outputDir := t.TempDir()
	p := newTestPipeline(t, &promptClient{}, outputDir)
	ctx := context.Background()

	docs := []domain.Document{testDoc("alpha"), testDoc("gamma")}
	require.NoError(t, p.Index(ctx, docs))

	results, err := p.RunDocuments(ctx, docs)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "BRD for alpha", results[0].BRD)
	require.Equal(t, "alpha.pdf", results[0].SourcePath)
	require.Equal(t, "consistent with the assessment", results[0].Report)

	// persisted under a content-derived filename
	wantName := "BRD_" + hashString(docs[0].RawText) + ".txt"
	require.Equal(t, wantName, filepath.Base(results[0].OutputPath))
	data, err := os.ReadFile(results[0].OutputPath)
	require.NoError(t, err)
	require.Equal(t, "BRD for alpha", string(data))
}

func TestRunDocuments_FailureIsolation(t *testing.T) {
	outputDir := t.TempDir()
	p := newTestPipeline(t, &promptClient{failOn: "beta", rejectOn: "delta"}, outputDir)
	ctx := context.Background()

	docs := []domain.Document{testDoc("alpha"), testDoc("beta"), testDoc("gamma"), testDoc("delta")}
	require.NoError(t, p.Index(ctx, docs))

	results, err := p.RunDocuments(ctx, docs)
	require.NoError(t, err)

	// beta fails at generation, delta is rejected by validation; both
	// are skipped without aborting the batch
	require.Len(t, results, 2)
	require.Equal(t, "doc-alpha", results[0].DocumentID)
	require.Equal(t, "doc-gamma", results[1].DocumentID)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestIndex_SkipsWhenStoreAlreadyBuilt(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Build(context.Background(),
		domain.StoreMetadata{EmbeddingModel: "fake-embed"},
		[]domain.EmbeddedChunk{{
			Chunk:  domain.Chunk{DocumentID: "doc-alpha", Index: 0, Text: "alpha assessment objectives"},
			Vector: []float32{1, 1, 2},
		}}))

	indexChunker, err := chunker.NewCharacterChunker(512, 128)
	require.NoError(t, err)
	p := New(Deps{
		IndexChunker: indexChunker,
		Embedder:     fakeEmbedder{},
		Store:        store,
		Retriever:    retriever.New(fakeEmbedder{}, store, 5, 0.5),
		Agents:       agents.New(&promptClient{}, llm.SamplingConfig{}),
	}, Options{OutputDir: t.TempDir()})

	require.NoError(t, p.Index(context.Background(), []domain.Document{testDoc("alpha")}))
	// the pre-built single chunk is still the whole index
	require.Equal(t, 1, store.Count())
}

func TestLoadDocuments_SkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain text"), 0o644))

	p := newTestPipeline(t, &promptClient{}, dir)
	docs := p.LoadDocuments([]string{txt, filepath.Join(dir, "missing.pdf")})
	require.Empty(t, docs)

	_, err := p.Run(context.Background(), []string{txt})
	require.Error(t, err)
}

func TestBRDFilename_Deterministic(t *testing.T) {
	a := brdFilename("same content")
	b := brdFilename("same content")
	c := brdFilename("other content")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.True(t, strings.HasPrefix(a, "BRD_"))
	require.True(t, strings.HasSuffix(a, ".txt"))
	require.Len(t, a, len("BRD_")+16+len(".txt"))
}
