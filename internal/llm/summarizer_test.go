package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/clauseflag/internal/logging"
	"github.com/ppiankov/clauseflag/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	calls     int
	lastReq   SummarizeRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{Provider: ""}, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
	if err := summarizer.Check(context.Background()); err != nil {
		t.Errorf("disabled summarizer must pass Check, got %v", err)
	}

	report := sampleReport()
	summary, err := summarizer.Summarize(context.Background(), &report)
	if err != nil || summary != nil {
		t.Errorf("Expected nil summary and nil error when disabled, got %v, %v", summary, err)
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "anthropic"}, nil, nil); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestNewSummarizer_OpenAINeedsKey(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "OpenAI"}, nil, nil); err == nil {
		t.Fatal("Expected error for missing key")
	}
}

func TestSummarizer_Check_Unavailable(t *testing.T) {
	s := &Summarizer{provider: &MockProvider{name: "mock"}}
	err := s.Check(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not available") {
		t.Errorf("Expected unavailability error, got %v", err)
	}
}

func TestSummarizer_Summarize_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "mock",
		available: true,
		response:  &SummarizeResponse{Summary: "Review the indemnity clause.", Model: "m1", TokensUsed: 42},
	}
	s := &Summarizer{provider: mock, config: Config{Model: "m1", MaxTokens: 300}}
	s.logger = nopLogger()

	report := sampleReport()
	summary, err := s.Summarize(context.Background(), &report)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	want := &model.Summary{Provider: "mock", Model: "m1", Text: "Review the indemnity clause.", TokensUsed: 42}
	if *summary != *want {
		t.Errorf("Expected %+v, got %+v", want, summary)
	}
	if mock.lastReq.MaxTokens != 300 || mock.lastReq.Model != "m1" {
		t.Errorf("config not forwarded: %+v", mock.lastReq)
	}
	if len(report.Matches) != 1 {
		t.Error("summarizing must not change the matches")
	}
}

func TestSummarizer_Summarize_NoMatchesSkipsCall(t *testing.T) {
	mock := &MockProvider{name: "mock", available: true}
	s := &Summarizer{provider: mock, logger: nopLogger()}

	summary, err := s.Summarize(context.Background(), &model.FlagReport{Document: "clean.txt"})
	if err != nil || summary != nil {
		t.Errorf("Expected nil, nil; got %v, %v", summary, err)
	}
	if mock.calls != 0 {
		t.Errorf("Expected no provider call, got %d", mock.calls)
	}
}

func TestSummarizer_Summarize_ProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	s := &Summarizer{provider: &MockProvider{name: "mock", err: cause}, logger: nopLogger()}

	report := sampleReport()
	_, err := s.Summarize(context.Background(), &report)
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "contract.txt") {
		t.Errorf("Expected document in error, got %v", err)
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	for _, want := range []string{
		"contract.txt",
		"cosine similarity above 0.2",
		"Sentences screened: 12",
		"Sentences flagged: 1",
		"[Indemnification] (confidence 0.61)",
		"Sentence: The Contractor shall indemnify the Sponsor for all claims.",
		"Preferred language: Each party is responsible for its own negligence.",
		"Why it matters: unbounded liability",
		"Do not invent clauses",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_ManyMatches(t *testing.T) {
	report := sampleReport()
	m := report.Matches[0]
	report.Matches = nil
	for i := 0; i < maxPromptMatches+5; i++ {
		report.Matches = append(report.Matches, m)
	}

	prompt := BuildPrompt(report)
	if !strings.Contains(prompt, "... and 5 more") {
		t.Error("expected truncation note")
	}
	if strings.Count(prompt, "Known problem:") != maxPromptMatches {
		t.Errorf("expected %d listed matches", maxPromptMatches)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != "" {
		t.Error("Expected summaries disabled by default")
	}
	if cfg.Timeout != 30 || cfg.MaxTokens != 800 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{Provider: "ollama", Model: "llama3", BaseURL: "http://h:1/v1", Timeout: 9, MaxTokens: 10})
	if cfg.Provider != "ollama" || cfg.Model != "llama3" || cfg.BaseURL != "http://h:1/v1" || cfg.Timeout != 9 || cfg.MaxTokens != 10 {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func nopLogger() logging.Logger { return logging.NewNop() }

func TestConfigFromModel_ProviderEnvironment(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":  "sk-secret",
		"OPENAI_BASE_URL": "https://proxy.example.com/v1",
		"OLLAMA_BASE_URL": "http://gpu-box:11434/v1",
	}
	getenv := func(k string) string { return env[k] }

	openaiCfg := configFromModel(model.LLMConfig{Provider: "openai"}, getenv)
	if openaiCfg.APIKey != "sk-secret" {
		t.Errorf("openai should read OPENAI_API_KEY, got %q", openaiCfg.APIKey)
	}
	if openaiCfg.BaseURL != "https://proxy.example.com/v1" {
		t.Errorf("openai must not use OLLAMA_BASE_URL, got %q", openaiCfg.BaseURL)
	}

	ollamaCfg := configFromModel(model.LLMConfig{Provider: "ollama"}, getenv)
	if ollamaCfg.APIKey != "" {
		t.Errorf("ollama must not receive the OpenAI key, got %q", ollamaCfg.APIKey)
	}
	if ollamaCfg.BaseURL != "http://gpu-box:11434/v1" {
		t.Errorf("ollama should read OLLAMA_BASE_URL, got %q", ollamaCfg.BaseURL)
	}

	explicit := configFromModel(model.LLMConfig{Provider: "openai", APIKey: "sk-config", BaseURL: "https://api.example.com/v1"}, getenv)
	if explicit.APIKey != "sk-config" || explicit.BaseURL != "https://api.example.com/v1" {
		t.Errorf("configured values must win over provider variables, got %+v", explicit)
	}

	disabled := configFromModel(model.LLMConfig{}, getenv)
	if disabled.APIKey != "" || disabled.BaseURL != "" {
		t.Errorf("disabled provider must not pick up variables, got %+v", disabled)
	}
}
