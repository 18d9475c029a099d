package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/worker"
)

// NewProvider creates the configured provider. It returns nil, nil when
// summaries are disabled.
func NewProvider(config Config, limiter *worker.Limiter) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config, limiter)

	case "ollama":
		return NewOllamaProvider(config, limiter), nil

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config. Provider
// environment variables fill only the settings of their own provider:
// OPENAI_API_KEY and OPENAI_BASE_URL for openai, OLLAMA_BASE_URL for ollama.
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return configFromModel(modelConfig, os.Getenv)
}

func configFromModel(modelConfig model.LLMConfig, getenv func(string) string) Config {
	config := Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}

	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = getenv("OPENAI_API_KEY")
		}
		if config.BaseURL == "" {
			config.BaseURL = getenv("OPENAI_BASE_URL")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}
	return config
}
