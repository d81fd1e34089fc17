package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/cache"
)

func cacheCmd() *cobra.Command {
	parent := &cobra.Command{Use: "cache", Short: "Inspect the response cache"}
	parent.AddCommand(cacheStatsCmd())
	return parent
}

func cacheStatsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-category hit rate and estimated cost saved",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			mgr, err := cache.New(cfg.Cache)
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			report := mgr.Report()
			if len(report) == 0 {
				fmt.Println("no cached categories yet")
				return nil
			}
			var totalSaved float64
			for _, r := range report {
				fmt.Printf("%-20s hits=%-6d misses=%-6d writes=%-6d errors=%-6d hit_rate=%5.1f%% saved=$%.4f\n",
					r.Category, r.Hits, r.Misses, r.Writes, r.Errors, r.HitRate*100, r.CostSaved)
				totalSaved += r.CostSaved
			}
			fmt.Printf("total estimated cost saved: $%.4f\n", totalSaved)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default deepwiki.yaml in the working directory)")
	return cmd
}
