package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/clauseflag/internal/worker"
	"github.com/sashabaranov/go-openai"
)

// ollamaBaseURL is Ollama's OpenAI-compatible endpoint
const ollamaBaseURL = "http://localhost:11434/v1"

// OpenAIProvider talks to any OpenAI-compatible chat completions API
type OpenAIProvider struct {
	name     string
	client   *openai.Client
	config   Config
	endpoint string
	limiter  *worker.Limiter
}

// NewOpenAIProvider creates a provider for api.openai.com or config.BaseURL
func NewOpenAIProvider(config Config, limiter *worker.Limiter) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return newCompatProvider("openai", config, limiter), nil
}

// NewOllamaProvider creates a provider for a local Ollama server. No key is needed.
func NewOllamaProvider(config Config, limiter *worker.Limiter) *OpenAIProvider {
	if config.BaseURL == "" {
		config.BaseURL = ollamaBaseURL
	}
	if config.APIKey == "" {
		config.APIKey = "ollama"
	}
	return newCompatProvider("ollama", config, limiter)
}

func newCompatProvider(name string, config Config, limiter *worker.Limiter) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	return &OpenAIProvider{
		name:     name,
		client:   openai.NewClientWithConfig(clientConfig),
		config:   config,
		endpoint: clientConfig.BaseURL,
		limiter:  limiter,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable lists models as a lightweight reachability check
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if err := p.wait(ctx); err != nil {
		return false
	}
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Summarize generates an overview using the Chat Completions API
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 800
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.wait(ctxWithTimeout); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize automated contract screening results for a human reviewer. You only discuss the sentences you are given.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return nil, fmt.Errorf("empty response from %s", p.name)
	}

	return &SummarizeResponse{
		Summary:    summary,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (p *OpenAIProvider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx, p.endpoint)
}
