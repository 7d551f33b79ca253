package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Supported embedding providers.
const (
	ProviderSidecar = "sidecar"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
)

// Providers lists the accepted values of EmbedderConfig.Provider.
var Providers = []string{ProviderSidecar, ProviderOllama, ProviderOpenAI}

// NewClient returns the langchaingo embedder client for config.Provider.
func NewClient(config EmbedderConfig) (embeddings.EmbedderClient, error) {
	switch config.Provider {
	case ProviderSidecar, "":
		return NewSidecarClient(config.BaseURL, config.Timeout), nil

	case ProviderOllama:
		model := config.Model
		if model == "" {
			model = "nomic-embed-text:latest"
		}
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		return llm, nil

	case ProviderOpenAI:
		return NewOpenAIClient(config.APIKey, config.BaseURL, config.Model)

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}
}
