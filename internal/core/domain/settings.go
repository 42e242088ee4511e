package domain

// AIProvider identifies an embedding or LLM backend.
type AIProvider string

// Supported AI providers.
const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid reports whether the provider is one of the supported backends.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	}
	return false
}

// EmbeddingSettings holds provider configuration for the embedding service.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Dimensions overrides the model's vector size. Zero means look the
	// model up in EmbeddingDimensions, falling back to provider defaults.
	Dimensions int
}

// IsConfigured reports whether enough is set to attempt service creation.
// Cloud providers additionally require an API key.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s == nil || s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOllama {
		return true
	}
	return s.APIKey != ""
}

// LLMSettings holds provider configuration for the generative service.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// IsConfigured reports whether enough is set to attempt service creation.
func (s *LLMSettings) IsConfigured() bool {
	if s == nil || s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOllama {
		return true
	}
	return s.APIKey != ""
}

// EmbeddingDimensions returns the vector size for known embedding models.
// Models not listed fall back to the provider adapter's default.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
