package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brdgen/internal/agents"
	"brdgen/internal/chunker"
	"brdgen/internal/config"
	"brdgen/internal/domain"
	"brdgen/internal/embedding"
	embgemini "brdgen/internal/embedding/gemini"
	embopenai "brdgen/internal/embedding/openai"
	"brdgen/internal/llm"
	llmgemini "brdgen/internal/llm/gemini"
	llmopenai "brdgen/internal/llm/openai"
	"brdgen/internal/pipeline"
	"brdgen/internal/retriever"
	"brdgen/internal/tui"
	chromemstore "brdgen/internal/vectorstore/chromem"
	"brdgen/internal/vectorstore/memory"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.AppConfig
	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "brdgen",
		Short:         "Generate Business Requirements Documents from assessment reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return err
			}
			if cfgPath == "" {
				cfg, _, err = config.LoadDefault()
			} else {
				cfg, err = config.Load(cfgPath)
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default: ./brdgen.yaml, then ~/.config/brdgen/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose console logging")

	root.AddCommand(indexCmd(), generateCmd(), chatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func indexCmd() *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "index <file>...",
		Short: "Build the vector index from assessment documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rebuild && cfg.Store.Type == "chromem" {
				if err := os.RemoveAll(cfg.Store.Location); err != nil {
					return err
				}
			}
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			docs := p.LoadDocuments(args)
			if len(docs) == 0 {
				return fmt.Errorf("no processable documents")
			}
			return p.Index(cmd.Context(), docs)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "discard any persisted index and rebuild from scratch")
	return cmd
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <file>...",
		Short: "Generate a validated BRD for each assessment document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			results, err := p.Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("no BRDs generated")
			}
			for _, r := range results {
				fmt.Printf("%s -> %s\n", r.SourcePath, r.OutputPath)
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	var assessment string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactively generate and refine a BRD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := buildAgents()
			if err != nil {
				return err
			}
			extractChunker, err := chunker.NewCharacterChunker(cfg.ExtractChunker.MaxSize, cfg.ExtractChunker.Overlap)
			if err != nil {
				return err
			}
			session := pipeline.NewSession(ag, loadExamples(), extractChunker, cfg.OutputDir, logger)
			model := tui.New(session)
			if assessment != "" {
				model = tui.NewWithAssessment(session, assessment)
			}
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&assessment, "assessment", "", "generate a BRD for this file immediately on startup")
	return cmd
}

// buildPipeline assembles the batch pipeline from the loaded config.
func buildPipeline() (*pipeline.Pipeline, error) {
	emb, err := buildEmbedder()
	if err != nil {
		return nil, err
	}
	store, err := buildStore()
	if err != nil {
		return nil, err
	}
	ag, err := buildAgents()
	if err != nil {
		return nil, err
	}
	indexChunker, err := chunker.NewCharacterChunker(cfg.IndexChunker.MaxSize, cfg.IndexChunker.Overlap)
	if err != nil {
		return nil, err
	}
	ret := retriever.New(emb, store, cfg.Retriever.TopK, *cfg.Retriever.Lambda)
	return pipeline.New(pipeline.Deps{
		IndexChunker: indexChunker,
		Embedder:     emb,
		Store:        store,
		Retriever:    ret,
		Agents:       ag,
		Examples:     loadExamples(),
		Logger:       logger,
	}, pipeline.Options{
		Query:            cfg.Retriever.Query,
		OutputDir:        cfg.OutputDir,
		ExcerptMaxChars:  cfg.Validation.ExcerptMaxChars,
		ExcerptSentences: cfg.Validation.ExcerptMaxSentences,
	}), nil
}

func buildEmbedder() (domain.Embedder, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Provider {
	case "openai":
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:    cfg.Embedder.BaseURL,
			APIKeyEnv:  cfg.Embedder.APIKeyEnv,
			Model:      cfg.Embedder.Model,
			Timeout:    time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Embedder.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		emb = client
	case "gemini":
		client, err := embgemini.NewClient(embgemini.Config{
			APIKeyEnv: cfg.Embedder.APIKeyEnv,
			Model:     cfg.Embedder.Model,
		})
		if err != nil {
			return nil, err
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", cfg.Embedder.Provider)
	}
	if cfg.Embedder.CacheSize > 0 {
		emb = embedding.WithCache(emb, cfg.Embedder.CacheSize, time.Duration(cfg.Embedder.CacheTTLSecs)*time.Second)
	}
	return emb, nil
}

// buildStore opens a persisted index at the configured location when
// one exists, otherwise prepares an empty store to be built.
func buildStore() (domain.VectorStore, error) {
	switch cfg.Store.Type {
	case "memory":
		return memory.New(), nil
	case "chromem":
		if chromemstore.Exists(cfg.Store.Location) {
			store, err := chromemstore.Open(cfg.Store.Location)
			if err != nil {
				return nil, err
			}
			logger.Info("loaded persisted vector store",
				zap.String("location", cfg.Store.Location),
				zap.Int("chunks", store.Count()))
			return store, nil
		}
		return chromemstore.Create(cfg.Store.Location)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}

func buildAgents() (*agents.Agents, error) {
	var client llm.Client
	switch cfg.LLM.Provider {
	case "openai":
		c, err := llmopenai.NewClient(llmopenai.Config{
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		client = c
	case "gemini":
		c, err := llmgemini.NewClient(llmgemini.Config{APIKeyEnv: cfg.LLM.APIKeyEnv})
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxRetries > 0 {
		client = llm.WithRetry(client, cfg.LLM.MaxRetries)
	}
	sampling := llm.SamplingConfig{
		Model:             cfg.LLM.Model,
		Temperature:       *cfg.LLM.Temperature,
		TopK:              cfg.LLM.TopK,
		RepetitionPenalty: cfg.LLM.RepetitionPenalty,
		MaxNewTokens:      cfg.LLM.MaxNewTokens,
	}
	return agents.New(client, sampling).WithFewShotBudget(cfg.FewShot.MaxChars), nil
}

func loadExamples() []agents.FewShotExample {
	pairs := make([]agents.ExamplePair, 0, len(cfg.FewShot.Pairs))
	for _, p := range cfg.FewShot.Pairs {
		pairs = append(pairs, agents.ExamplePair{AssessmentPath: p.Assessment, BRDPath: p.BRD})
	}
	return agents.LoadFewShotExamples(pairs, logger)
}
