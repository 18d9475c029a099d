// Package llm writes an optional plain-language overview of a flag report
// for a human reviewer. It never changes which sentences are flagged.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/render"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates an overview of the report's matches
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for summarization
type SummarizeRequest struct {
	Report model.FlagReport

	// Prompt overrides BuildPrompt when set
	Prompt string

	// Model is the provider-specific model; falls back to Config.Model
	Model string

	MaxTokens int
}

// SummarizeResponse contains the generated overview
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", or "" to disable
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	MaxTokens int
}

// DefaultConfig returns the disabled default
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 800,
	}
}

// maxPromptMatches caps how many matches are listed in a prompt
const maxPromptMatches = 25

// BuildPrompt lists the flagged sentences with their category and the
// preferred language, and asks for a reviewer-facing overview.
func BuildPrompt(report model.FlagReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are assisting a contracts officer reviewing a sponsored-research agreement.
An automated screen compared each sentence of the agreement with known problematic clauses
(%s similarity above %s). The screen can be wrong in both directions.

RULES:
1. Only discuss the flagged sentences listed below. Do not invent clauses.
2. Group findings by category and say which preferred language could replace them.
3. Do not give legal advice or say a clause is definitely unacceptable.

Document: %s
Sentences screened: %d
Sentences flagged: %d

Flagged sentences:
`, report.Metric, render.FormatConfidence(report.Threshold), report.Document, report.Sentences, report.FlaggedCount())

	for i, m := range report.Matches {
		if i >= maxPromptMatches {
			fmt.Fprintf(&b, "... and %d more\n", len(report.Matches)-maxPromptMatches)
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s] (confidence %.2f)\n   Sentence: %s\n   Known problem: %s\n",
			i+1, m.Category, m.Confidence, m.Sentence, m.Problem)
		if len(m.PreferredLanguage) > 0 {
			fmt.Fprintf(&b, "   Preferred language: %s\n", m.PreferredLanguage[0])
		}
		if m.Why != nil {
			fmt.Fprintf(&b, "   Why it matters: %s\n", *m.Why)
		}
	}

	b.WriteString("\nWrite a short markdown overview (at most 8 bullet points) for the reviewer.")
	return b.String()
}
