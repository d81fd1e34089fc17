package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/pipeline"
)

func generateCmd() *cobra.Command {
	var cfgPath, root string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the documentation pipeline against a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if root == "" {
				root = cfg.General.ProjectPath
			}

			driver := pipeline.New(cfg, root)
			report, err := driver.Run(context.Background())
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			fmt.Print(report.Render())
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default deepwiki.yaml in the working directory)")
	cmd.Flags().StringVar(&root, "project", "", "project root to document (default: config general.project_path)")
	return cmd
}
