package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/clauseflag/internal/pipeline"
	"github.com/ppiankov/clauseflag/internal/render"
	"github.com/spf13/cobra"
)

var (
	scanFlags   engineFlags
	scanOut     string
	scanTimeout time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <matrix.xlsx> <document>",
	Short: "Flag one document against a clause matrix",
	Long: `Scan splits a document into sentences, scores each one against every
known problematic clause in the matrix, and writes the document back out
with the flagged sentences wrapped in review blocks.

Documents may be plain text (.txt) or HTML (.html, .htm).

Example:
  clauseflag scan tnc.xlsx contract.txt
  clauseflag scan tnc.xlsx contract.txt --json -o ./reviews
  clauseflag scan tnc.xlsx contract.txt --metric jaccard --threshold 0.3
  clauseflag scan tnc.xlsx contract.txt --summary openai`,
	Args: cobra.ExactArgs(2),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanFlags.register(scanCmd)
	scanCmd.Flags().StringVar(&scanOut, "out", "", "annotated output path (default: <output-dir>/flagged_<document>.txt)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Minute, "overall scan timeout")
}

func runScan(cmd *cobra.Command, args []string) error {
	matrixPath, docPath := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scanFlags.apply(cmd, cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Loading clause matrix %s...\n", matrixPath)
	}
	matrix, err := p.UseMatrix(ctx, matrixPath)
	if err != nil {
		return fmt.Errorf("load matrix: %w", err)
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ %d categories, %d problems\n", len(matrix.Categories), matrix.ProblemCount())
	}

	report, err := p.ScanFile(ctx, docPath)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	out := pipeline.OutputsFor(cfg.Output.Dir, docPath, cfg.Output.JSON)
	if scanOut != "" {
		out = pipeline.OutputsFor(".", docPath, cfg.Output.JSON)
		out.Text = scanOut
	}
	if err := p.WriteReport(report, out); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	render.PrintSummary(cmd.OutOrStdout(), report)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", out.Text)
	if out.JSON != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", out.JSON)
	}
	if report.Summary != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", out.Summary)
	}

	return nil
}
