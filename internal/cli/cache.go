package cli

import (
	"fmt"

	"github.com/ppiankov/clauseflag/internal/apperr"
	"github.com/ppiankov/clauseflag/internal/cache"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the parsed-workbook cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [matrix.xlsx]",
	Short: "Remove cached workbooks",
	Long: `Clear removes the cached parse of one workbook, or every cached workbook
when no path is given. The cache directory is cache.dir in the configuration.

Example:
  clauseflag cache clear
  clauseflag cache clear tnc.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Clearing works even when caching is switched off for scans.
		cfg.Cache.Enabled = true
		store := cache.New(cfg.Cache)

		if len(args) == 0 {
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s\n", cfg.Cache.Dir)
			return nil
		}

		key, err := cache.Key(args[0], cfg.Engine.ExcludedSheets, cfg.Engine.PreferredLanguageLabels)
		if err != nil {
			return apperr.NotFound(args[0], err)
		}
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("clear cache entry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared cached %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
