// Package config loads the application configuration from a YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// LLMConfig selects and configures the completion service backend.
type LLMConfig struct {
	Provider  string `yaml:"provider" env:"BRDGEN_LLM_PROVIDER"`
	BaseURL   string `yaml:"base_url" env:"BRDGEN_LLM_BASE_URL"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model" env:"BRDGEN_LLM_MODEL"`
	// Temperature is a pointer so an explicit 0 survives defaulting.
	Temperature       *float64 `yaml:"temperature"`
	TopK              int      `yaml:"top_k"`
	RepetitionPenalty float64  `yaml:"repetition_penalty"`
	MaxNewTokens      int      `yaml:"max_new_tokens"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	MaxRetries        int      `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Provider     string `yaml:"provider" env:"BRDGEN_EMBED_PROVIDER"`
	BaseURL      string `yaml:"base_url" env:"BRDGEN_EMBED_BASE_URL"`
	APIKeyEnv    string `yaml:"api_key_env"`
	Model        string `yaml:"model" env:"BRDGEN_EMBED_MODEL"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
	MaxRetries   int    `yaml:"max_retries"`
	CacheSize    int    `yaml:"cache_size"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs"`
}

// ChunkerConfig configures one chunker instance. The extraction and
// indexing paths are tuned independently.
type ChunkerConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// StoreConfig selects the vector store implementation and its
// persistence location.
type StoreConfig struct {
	Type     string `yaml:"type"`
	Location string `yaml:"location" env:"BRDGEN_STORE_LOCATION"`
}

// RetrieverConfig configures MMR retrieval. Lambda is a pointer so an
// explicit 0 (pure diversity) survives defaulting.
type RetrieverConfig struct {
	TopK   int      `yaml:"top_k"`
	Lambda *float64 `yaml:"lambda"`
	Query  string   `yaml:"query"`
}

// ExamplePairConfig names the source files of one few-shot example.
type ExamplePairConfig struct {
	Assessment string `yaml:"assessment"`
	BRD        string `yaml:"brd"`
}

// FewShotConfig configures few-shot prompting for BRD generation.
type FewShotConfig struct {
	Pairs    []ExamplePairConfig `yaml:"pairs"`
	MaxChars int                 `yaml:"max_chars"`
}

// ValidationConfig bounds the original-document excerpt handed to the
// validation agent.
type ValidationConfig struct {
	ExcerptMaxChars     int `yaml:"excerpt_max_chars"`
	ExcerptMaxSentences int `yaml:"excerpt_max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM            LLMConfig        `yaml:"llm"`
	Embedder       EmbedderConfig   `yaml:"embedder"`
	ExtractChunker ChunkerConfig    `yaml:"extract_chunker"`
	IndexChunker   ChunkerConfig    `yaml:"index_chunker"`
	Store          StoreConfig      `yaml:"store"`
	Retriever      RetrieverConfig  `yaml:"retriever"`
	FewShot        FewShotConfig    `yaml:"few_shot"`
	Validation     ValidationConfig `yaml:"validation"`
	OutputDir      string           `yaml:"output_dir" env:"BRDGEN_OUTPUT_DIR"`
}

// Load reads a config from a specified path. If the file does not
// exist, defaults are returned. Environment overrides apply last.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./brdgen.yaml first, then ~/.config/brdgen/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "brdgen.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	var cfg AppConfig
	applyDefaults(&cfg)
	if err := Save(userPath, &cfg); err != nil {
		return nil, "", err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, "", err
	}
	return &cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "brdgen", "config.yaml"), nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "BRDGEN_LLM_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "mistral-large-latest"
	}
	if cfg.LLM.Temperature == nil {
		t := 0.3
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 30
	}
	if cfg.LLM.RepetitionPenalty == 0 {
		cfg.LLM.RepetitionPenalty = 1.03
	}
	if cfg.LLM.MaxNewTokens == 0 {
		cfg.LLM.MaxNewTokens = 512
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}

	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = "openai"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "BRDGEN_EMBED_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "mxbai-embed-large"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.MaxRetries == 0 {
		cfg.Embedder.MaxRetries = 5
	}
	if cfg.Embedder.CacheSize == 0 {
		cfg.Embedder.CacheSize = 1024
	}
	if cfg.Embedder.CacheTTLSecs == 0 {
		cfg.Embedder.CacheTTLSecs = 3600
	}

	if cfg.ExtractChunker.MaxSize == 0 {
		cfg.ExtractChunker = ChunkerConfig{MaxSize: 500, Overlap: 50}
	}
	if cfg.IndexChunker.MaxSize == 0 {
		cfg.IndexChunker = ChunkerConfig{MaxSize: 512, Overlap: 128}
	}

	if cfg.Store.Type == "" {
		cfg.Store.Type = "chromem"
	}
	if cfg.Store.Location == "" {
		cfg.Store.Location = filepath.Join("data", "index")
	}

	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if cfg.Retriever.Lambda == nil {
		l := 0.5
		cfg.Retriever.Lambda = &l
	}
	if cfg.Retriever.Query == "" {
		cfg.Retriever.Query = "What are the objectives, requirements and risks of the assessment?"
	}

	if cfg.FewShot.MaxChars == 0 {
		cfg.FewShot.MaxChars = 8000
	}

	if cfg.Validation.ExcerptMaxChars == 0 {
		cfg.Validation.ExcerptMaxChars = 4000
	}
	if cfg.Validation.ExcerptMaxSentences == 0 {
		cfg.Validation.ExcerptMaxSentences = 12
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "generated_brds"
	}
}
