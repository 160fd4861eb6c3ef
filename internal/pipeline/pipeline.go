// Package pipeline sequences document ingestion, indexing, the agent
// chain and persistence, with per-document failure isolation.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brdgen/internal/agents"
	"brdgen/internal/domain"
	"brdgen/internal/embedding"
	"brdgen/internal/extract"
	"brdgen/internal/retriever"
	"brdgen/internal/summarizer"
)

// Pipeline is the batch orchestrator. Documents are processed to
// completion one at a time; a failure in one document never aborts the
// rest of the batch.
type Pipeline struct {
	indexChunker domain.Chunker
	embedder     domain.Embedder
	store        domain.VectorStore
	retriever    *retriever.Retriever
	agents       *agents.Agents
	examples     []agents.FewShotExample
	excerpts     *summarizer.FrequencySummarizer

	query            string
	outputDir        string
	excerptMaxChars  int
	excerptSentences int
	logger           *zap.Logger
}

// Deps are the collaborators of a pipeline run.
type Deps struct {
	IndexChunker domain.Chunker
	Embedder     domain.Embedder
	Store        domain.VectorStore
	Retriever    *retriever.Retriever
	Agents       *agents.Agents
	Examples     []agents.FewShotExample
	Logger       *zap.Logger
}

// Options tune the pipeline behavior.
type Options struct {
	Query            string
	OutputDir        string
	ExcerptMaxChars  int
	ExcerptSentences int
}

func New(deps Deps, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "generated_brds"
	}
	return &Pipeline{
		indexChunker:     deps.IndexChunker,
		embedder:         deps.Embedder,
		store:            deps.Store,
		retriever:        deps.Retriever,
		agents:           deps.Agents,
		examples:         deps.Examples,
		excerpts:         summarizer.NewFrequencySummarizer(),
		query:            opts.Query,
		outputDir:        opts.OutputDir,
		excerptMaxChars:  opts.ExcerptMaxChars,
		excerptSentences: opts.ExcerptSentences,
		logger:           logger,
	}
}

// GeneratedBRD is one accepted pipeline output.
type GeneratedBRD struct {
	DocumentID string
	SourcePath string
	OutputPath string
	BRD        string
	Report     string
}

// LoadDocuments ingests the given paths. Unsupported extensions and
// extraction failures are logged and skipped; ingestion continues for
// the remaining documents.
func (p *Pipeline) LoadDocuments(paths []string) []domain.Document {
	var docs []domain.Document
	for _, path := range paths {
		raw, err := extract.Text(path)
		if err != nil {
			p.logger.Warn("skipping document", zap.String("path", path), zap.Error(err))
			continue
		}
		cleaned := extract.Clean(raw)
		if cleaned == "" {
			p.logger.Warn("skipping document", zap.String("path", path), zap.Error(domain.ErrEmptyDocument))
			continue
		}
		docs = append(docs, domain.Document{
			ID:         hashString(path),
			SourcePath: path,
			RawText:    cleaned,
		})
	}
	return docs
}

// Index builds the vector store from the documents unless the store was
// already loaded from its persistence location. The load-instead-of-
// rebuild decision is made by the caller from location existence alone;
// a store built from a different document set at the same location goes
// undetected (staleness hazard), so distinct document sets need
// distinct locations.
func (p *Pipeline) Index(ctx context.Context, docs []domain.Document) error {
	if meta, built := p.store.Meta(); built {
		p.logger.Info("vector store already built, skipping indexing",
			zap.String("embedding_model", meta.EmbeddingModel),
			zap.Int("chunks", p.store.Count()))
		return nil
	}
	var all []domain.Chunk
	for _, doc := range docs {
		chunks, err := p.indexChunker.Split(doc)
		if err != nil {
			return err
		}
		all = append(all, chunks...)
	}
	embedded, err := embedding.EmbedAll(ctx, p.embedder, all)
	if err != nil {
		return err
	}
	meta := domain.StoreMetadata{EmbeddingModel: p.embedder.ModelName()}
	if err := p.store.Build(ctx, meta, embedded); err != nil {
		return err
	}
	p.logger.Info("vector store built", zap.Int("chunks", len(embedded)))
	return nil
}

// Run is the full batch: ingest, index or load, then the per-document
// agent chain.
func (p *Pipeline) Run(ctx context.Context, paths []string) ([]GeneratedBRD, error) {
	docs := p.LoadDocuments(paths)
	if len(docs) == 0 {
		return nil, errors.New("no processable documents")
	}
	if err := p.Index(ctx, docs); err != nil {
		return nil, err
	}
	return p.RunDocuments(ctx, docs)
}

// RunDocuments runs extract -> generate -> validate for each document
// independently. Agent errors and validation rejections are logged and
// the document is skipped; the run continues.
func (p *Pipeline) RunDocuments(ctx context.Context, docs []domain.Document) ([]GeneratedBRD, error) {
	logger := p.logger.With(zap.String("run_id", uuid.NewString()))
	var results []GeneratedBRD
	for _, doc := range docs {
		out, err := p.processDocument(ctx, logger, doc)
		if err != nil {
			logger.Error("error processing document",
				zap.String("document", doc.SourcePath),
				zap.Error(err))
			continue
		}
		if out == nil {
			// validation rejected; already logged
			continue
		}
		results = append(results, *out)
	}
	return results, nil
}

func (p *Pipeline) processDocument(ctx context.Context, logger *zap.Logger, doc domain.Document) (*GeneratedBRD, error) {
	docContext, err := p.documentContext(ctx, doc)
	if err != nil {
		return nil, err
	}

	extracted, err := p.agents.ExtractKeyInfo(ctx, docContext)
	if err != nil {
		return nil, err
	}

	brd, err := p.agents.GenerateBRD(ctx, extracted, p.examples)
	if err != nil {
		return nil, err
	}

	excerpt := p.excerpts.Excerpt(doc.RawText, p.excerptMaxChars, p.excerptSentences)
	validation, err := p.agents.ValidateBRD(ctx, brd, excerpt)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid {
		logger.Warn("BRD validation failed, skipping document",
			zap.String("document", doc.SourcePath))
		return nil, nil
	}

	path, err := writeBRD(p.outputDir, brdFilename(doc.RawText), brd)
	if err != nil {
		return nil, err
	}
	logger.Info("successfully generated BRD",
		zap.String("document", doc.SourcePath),
		zap.String("output", path))
	return &GeneratedBRD{
		DocumentID: doc.ID,
		SourcePath: doc.SourcePath,
		OutputPath: path,
		BRD:        brd,
		Report:     validation.Report,
	}, nil
}

// documentContext assembles the extraction context for one document
// from the diversity-ranked retrieval results, falling back to the
// whole cleaned text when retrieval yields nothing for the document.
func (p *Pipeline) documentContext(ctx context.Context, doc domain.Document) (string, error) {
	results, err := p.retriever.SearchDocument(ctx, p.query, doc.ID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return doc.RawText, nil
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Chunk.Text)
	}
	return strings.Join(parts, "\n"), nil
}
