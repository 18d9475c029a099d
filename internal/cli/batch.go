package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ppiankov/clauseflag/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	batchFlags       engineFlags
	batchConcurrency int
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <matrix.xlsx> <list-file>",
	Short: "Flag many documents against one clause matrix",
	Long: `Batch reads document paths from a list file (one per line, # comments
allowed, relative paths resolved against the list file) and scans them in
parallel. The matrix is read once. A failed document does not stop the rest.

Example:
  clauseflag batch tnc.xlsx contracts.list
  clauseflag batch tnc.xlsx contracts.list --concurrency 8 -o ./reviews --json`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd)
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "documents scanned at once")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	matrixPath, listPath := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchFlags.apply(cmd, cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  clauseflag batch\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  Matrix:       %s\n", matrixPath)
	fmt.Fprintf(out, "  List file:    %s\n", listPath)
	fmt.Fprintf(out, "  Concurrency:  %d\n", batchConcurrency)
	fmt.Fprintf(out, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(out, "\n")

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if _, err := p.UseMatrix(ctx, matrixPath); err != nil {
		return fmt.Errorf("load matrix: %w", err)
	}

	results, err := p.Batch(batchConcurrency).ProcessFile(ctx, listPath)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	docs := make([]string, len(results))
	for i, result := range results {
		docs[i] = result.Path
	}
	outputs := pipeline.OutputsForAll(cfg.Output.Dir, docs, cfg.Output.JSON)

	successCount := 0
	failureCount := 0
	flagged := 0

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(out, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		if err := p.WriteReport(result.Report, outputs[i]); err != nil {
			failureCount++
			fmt.Fprintf(out, "✗ %s: %v\n", result.Path, err)
			continue
		}

		successCount++
		flagged += result.Report.FlaggedCount()
		fmt.Fprintf(out, "✓ %s → %s (%d of %d sentences flagged)\n", result.Path, outputs[i].Text, result.Report.FlaggedCount(), result.Report.Sentences)
	}

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  Batch Complete\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(out, "  Success:   %d\n", successCount)
	fmt.Fprintf(out, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(out, "  Flagged:   %d sentences\n", flagged)
	fmt.Fprintf(out, "  Output:    %s\n", cfg.Output.Dir)
	fmt.Fprintf(out, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d documents failed", failureCount)
	}
	return nil
}
