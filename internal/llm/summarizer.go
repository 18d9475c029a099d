package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/clauseflag/internal/logging"
	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/worker"
)

// Summarizer attaches an optional overview to flag reports.
type Summarizer struct {
	provider Provider
	config   Config
	logger   logging.Logger
}

// NewSummarizer builds a summarizer. A disabled configuration yields a
// summarizer whose Summarize is a no-op.
func NewSummarizer(config Config, limiter *worker.Limiter, logger logging.Logger) (*Summarizer, error) {
	provider, err := NewProvider(config, limiter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Summarizer{provider: provider, config: config, logger: logger.Named("llm")}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// Check verifies the provider is reachable. Disabled summarizers pass.
func (s *Summarizer) Check(ctx context.Context) error {
	if !s.IsEnabled() {
		return nil
	}
	if !s.provider.IsAvailable(ctx) {
		return fmt.Errorf("LLM provider %s is not available", s.provider.Name())
	}
	return nil
}

// Summarize returns an overview of report, or nil when disabled or when
// nothing was flagged.
func (s *Summarizer) Summarize(ctx context.Context, report *model.FlagReport) (*model.Summary, error) {
	if !s.IsEnabled() || report == nil || len(report.Matches) == 0 {
		return nil, nil
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    *report,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", report.Document, err)
	}

	s.logger.Debug("summary generated",
		logging.String("provider", s.provider.Name()),
		logging.String("model", resp.Model),
		logging.Int("tokens", resp.TokensUsed),
	)

	return &model.Summary{
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		Text:       resp.Summary,
		TokensUsed: resp.TokensUsed,
	}, nil
}
