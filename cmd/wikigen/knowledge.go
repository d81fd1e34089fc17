package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/knowledge"
)

func syncKnowledgeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "sync-knowledge",
		Short: "Sync the knowledge store's configured categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.Knowledge.Enabled {
				fmt.Println("knowledge store is disabled (knowledge.enabled=false)")
				return nil
			}
			store, err := knowledge.New(cfg.Knowledge)
			if err != nil {
				return fmt.Errorf("knowledge store: %w", err)
			}
			reports, err := store.Sync(context.Background())
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			for _, r := range reports {
				fmt.Printf("%s: +%d ~%d -%d files, %d chunks\n", r.Category, r.FilesAdded, r.FilesUpdated, r.FilesRemoved, r.ChunksTotal)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default deepwiki.yaml in the working directory)")
	return cmd
}
