package cli

import (
	"fmt"
	"io"

	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	matrixYAML    bool
	matrixNoCache bool
)

// matrixCmd represents the matrix command
var matrixCmd = &cobra.Command{
	Use:   "matrix <matrix.xlsx>",
	Short: "Show the categories extracted from a clause matrix",
	Long: `Matrix reads a reference workbook the same way scan does and prints the
categories, problem records and preferred language it found. Use it to check
a workbook after editing it.

Example:
  clauseflag matrix tnc.xlsx
  clauseflag matrix tnc.xlsx --yaml > matrix.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if matrixNoCache {
			cfg.Cache.Enabled = false
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		p, err := buildPipeline(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		m, err := p.LoadMatrix(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load matrix: %w", err)
		}

		if matrixYAML {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("encode matrix: %w", err)
			}
			return enc.Close()
		}

		printMatrix(cmd.OutOrStdout(), m)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	matrixCmd.Flags().BoolVar(&matrixYAML, "yaml", false, "print as YAML")
	matrixCmd.Flags().BoolVar(&matrixNoCache, "no-cache", false, "always re-read the workbook")
}

func printMatrix(out io.Writer, m *model.Matrix) {
	fmt.Fprintf(out, "%s: %d categories, %d problems\n", m.Source, len(m.Categories), m.ProblemCount())
	for _, c := range m.Categories {
		fmt.Fprintf(out, "\n%s\n", c.Name)
		fmt.Fprintf(out, "  Common Problems (%d)\n", len(c.Problems))
		for i, p := range c.Problems {
			fmt.Fprintf(out, "    %d. %s\n", i+1, p.Text)
			if p.Why != nil {
				fmt.Fprintf(out, "       Why: %s\n", *p.Why)
			}
			if p.Response != nil {
				fmt.Fprintf(out, "       1st response to Sponsor: %s\n", *p.Response)
			}
		}
		fmt.Fprintf(out, "  Preferred Language (%d)\n", len(c.PreferredLanguage))
		for _, pl := range c.PreferredLanguage {
			fmt.Fprintf(out, "    - %s\n", pl)
		}
	}
}
