// Package config loads and validates the application configuration.
//
// Configuration comes from a TOML file plus environment variables for
// API keys. A .env file alongside the working directory is honoured.
// Missing required settings fail at startup with actionable errors.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// Defaults applied when the config file omits a setting.
const (
	DefaultEmbeddingProvider = "openai"
	DefaultLLMProvider       = "openai"
	DefaultTopK              = 5
	DefaultChunkSize         = 800
	DefaultChunkOverlap      = 100
	DefaultMaxTokens         = 1024
	DefaultTemperature       = 0.2
)

// Environment variables holding provider API keys.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
)

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig configures the generative provider.
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// IndexConfig configures the vector index location.
type IndexConfig struct {
	DataDir string `toml:"data_dir"`
}

// RAGConfig configures retrieval behaviour.
type RAGConfig struct {
	TopK int `toml:"top_k"`
}

// ChunkingConfig configures how article text is split.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SessionConfig configures conversational memory.
type SessionConfig struct {
	// MaxTurns caps retained turns per session. Zero means unbounded.
	MaxTurns int `toml:"max_turns"`
}

// SourceConfig is one configured news source.
type SourceConfig struct {
	Name           string   `toml:"name"`
	BaseURL        string   `toml:"base_url"`
	Sections       []string `toml:"sections"`
	RequiresRender bool     `toml:"requires_render"`
	Enabled        bool     `toml:"enabled"`
}

// Config is the root application configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Index     IndexConfig     `toml:"index"`
	RAG       RAGConfig       `toml:"rag"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Session   SessionConfig   `toml:"session"`
	Sources   []SourceConfig  `toml:"sources"`
}

// Load reads the config from path. If the file does not exist, returns
// defaults. API keys are resolved from the environment at conversion
// time, not stored in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultPath returns the default config file location, preferring
// ./config.toml over ~/.finsight/config.toml.
func DefaultPath() string {
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".finsight", "config.toml")
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if !domain.AIProvider(c.Embedding.Provider).IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedProvider, c.Embedding.Provider)
	}
	if domain.AIProvider(c.Embedding.Provider) == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not offer embeddings, use ollama or openai",
			domain.ErrUnsupportedProvider)
	}
	if !domain.AIProvider(c.LLM.Provider).IsValid() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedProvider, c.LLM.Provider)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("%w: rag.top_k must be positive", domain.ErrInvalidInput)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", domain.ErrInvalidInput)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be non-negative and smaller than chunking.size",
			domain.ErrInvalidInput)
	}
	if c.Session.MaxTurns < 0 {
		return fmt.Errorf("%w: session.max_turns must not be negative", domain.ErrInvalidInput)
	}

	for _, src := range c.Sources {
		if src.Name == "" || src.BaseURL == "" {
			return fmt.Errorf("%w: every source needs a name and a base_url", domain.ErrInvalidInput)
		}
	}
	return nil
}

// EmbeddingSettings converts to provider settings, resolving the API
// key from the environment.
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   domain.AIProvider(c.Embedding.Provider),
		Model:      c.Embedding.Model,
		BaseURL:    c.Embedding.BaseURL,
		APIKey:     apiKeyFor(domain.AIProvider(c.Embedding.Provider)),
		Dimensions: c.Embedding.Dimensions,
	}
}

// LLMSettings converts to provider settings, resolving the API key
// from the environment.
func (c *Config) LLMSettings() *domain.LLMSettings {
	return &domain.LLMSettings{
		Provider:    domain.AIProvider(c.LLM.Provider),
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		APIKey:      apiKeyFor(domain.AIProvider(c.LLM.Provider)),
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
	}
}

// NewsSources converts the configured sources to domain values.
func (c *Config) NewsSources() []domain.NewsSource {
	sources := make([]domain.NewsSource, len(c.Sources))
	for i, src := range c.Sources {
		sources[i] = domain.NewsSource{
			Name:           src.Name,
			BaseURL:        src.BaseURL,
			Sections:       src.Sections,
			RequiresRender: src.RequiresRender,
			Enabled:        src.Enabled,
		}
	}
	return sources
}

// EnabledSources returns only the sources marked enabled.
func (c *Config) EnabledSources() []domain.NewsSource {
	var enabled []domain.NewsSource
	for _, src := range c.NewsSources() {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// apiKeyFor resolves the provider's API key from the environment.
// Ollama needs none.
func apiKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv(envOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(envAnthropicKey)
	default:
		return ""
	}
}

func defaultConfig() *Config {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name:     "moneycontrol",
				BaseURL:  "https://www.moneycontrol.com",
				Sections: []string{"/news/business/", "/news/business/markets/", "/news/business/economy/"},
				Enabled:  true,
			},
			{
				Name:           "economic_times",
				BaseURL:        "https://economictimes.indiatimes.com",
				Sections:       []string{"/markets", "/news/economy"},
				RequiresRender: true,
				Enabled:        true,
			},
		},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = DefaultEmbeddingProvider
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultLLMProvider
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = DefaultMaxTokens
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = DefaultTemperature
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = DefaultTopK
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = DefaultChunkSize
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = DefaultChunkOverlap
	}
}
