package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/clauseflag/internal/llm"
	"github.com/ppiankov/clauseflag/internal/logging"
	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/pipeline"
	"github.com/ppiankov/clauseflag/internal/worker"
	"github.com/spf13/cobra"
)

// engineFlags are the per-command overrides shared by scan and batch.
type engineFlags struct {
	threshold float64
	metric    string
	workers   int
	outDir    string
	json      bool
	noCache   bool
	llm       string
	llmModel  string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	defaults := model.DefaultConfig()
	cmd.Flags().Float64Var(&f.threshold, "threshold", defaults.Engine.Threshold, "flag sentences scoring strictly above this value")
	cmd.Flags().StringVar(&f.metric, "metric", defaults.Engine.Metric, "similarity metric (cosine, jaccard)")
	cmd.Flags().IntVar(&f.workers, "workers", defaults.Engine.Workers, "scoring workers per document")
	cmd.Flags().StringVarP(&f.outDir, "output-dir", "o", defaults.Output.Dir, "directory for flagged_<document>.txt")
	cmd.Flags().BoolVar(&f.json, "json", false, "also write a JSON report")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "always re-read the workbook")
	cmd.Flags().StringVar(&f.llm, "summary", "", "write an LLM summary with this provider (openai, ollama)")
	cmd.Flags().StringVar(&f.llmModel, "summary-model", "", "model for --summary")
}

// apply overlays flags the user actually set.
func (f *engineFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Engine.Threshold = f.threshold
	}
	if flags.Changed("metric") {
		cfg.Engine.Metric = f.metric
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = f.workers
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = f.outDir
	}
	if flags.Changed("json") {
		cfg.Output.JSON = f.json
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("summary") {
		cfg.LLM.Provider = f.llm
	}
	if flags.Changed("summary-model") {
		cfg.LLM.Model = f.llmModel
	}
}

func newLogger(cfg *model.Config) (logging.Logger, error) {
	if cfg.Output.Verbose && cfg.Log.Level == "info" {
		cfg.Log.Level = "debug"
	}
	return logging.New(cfg.Log)
}

// buildPipeline creates the pipeline and, when configured, a summarizer
// throttled per API host.
func buildPipeline(ctx context.Context, cfg *model.Config, logger logging.Logger) (*pipeline.Pipeline, error) {
	var opts []pipeline.Option

	if cfg.LLM.Provider != "" {
		summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM), newLimiter(cfg.RateLimiting), logger)
		if err != nil {
			return nil, fmt.Errorf("configure summary: %w", err)
		}
		if err := summarizer.Check(ctx); err != nil {
			logger.Warn("summaries disabled", logging.Err(err))
			fmt.Fprintf(os.Stderr, "Warning: %v; continuing without summaries\n", err)
		} else {
			logger.Info("summaries enabled", logging.String("provider", summarizer.ProviderName()))
			opts = append(opts, pipeline.WithSummarizer(summarizer))
		}
	}

	return pipeline.NewPipeline(cfg, nil, logger, opts...)
}

// newLimiter builds the API throttle with any per-host overrides.
func newLimiter(cfg model.RateLimitingConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for _, h := range cfg.Hosts {
		if h.Host != "" {
			limiter.SetHostRate(h.Host, h.RequestsPerSecond, h.BurstSize)
		}
	}
	return limiter
}
