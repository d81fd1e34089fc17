package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/cobra"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/pipeline"
)

// isDue reports whether cronSpec is due to fire again given the last
// run time, grounded verbatim on the teacher's
// internal/server/scheduler.go::isDue (its "@daily"/"@hourly"
// shorthand plus a standard-cron fallback via cronexpr, defaulting to
// @daily on a malformed expression rather than never firing).
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		return last == nil || now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return last == nil || now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return last == nil || now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		return !expr.Next(*last).After(now)
	}
}

// watchCmd re-runs generate on a cron schedule, grounded on the
// teacher's internal/server/scheduler.go (Scheduler.tick's
// ticker+isDue loop, adapted from a per-topic poll loop to a
// single-project poll loop with no distributed lock, since wikigen has
// no multi-worker deployment story).
func watchCmd() *cobra.Command {
	var cfgPath, root, cronSpec string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the documentation pipeline on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cronSpec != "@daily" && cronSpec != "@hourly" {
				if _, err := cronexpr.Parse(cronSpec); err != nil {
					return fmt.Errorf("invalid cron expression %q: %w", cronSpec, err)
				}
			}

			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if root == "" {
				root = cfg.General.ProjectPath
			}

			logger := log.New(log.Writer(), "[WATCH] ", log.LstdFlags)
			logger.Printf("watching with schedule %q", cronSpec)

			var last *time.Time
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				if !isDue(cronSpec, last) {
					continue
				}
				now := time.Now()
				last = &now
				logger.Printf("schedule fired, running generate")
				driver := pipeline.New(cfg, root)
				if _, err := driver.Run(context.Background()); err != nil {
					logger.Printf("generate failed: %v", err)
					continue
				}
				logger.Printf("generate succeeded")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default deepwiki.yaml in the working directory)")
	cmd.Flags().StringVar(&root, "project", "", "project root to document (default: config general.project_path)")
	cmd.Flags().StringVar(&cronSpec, "cron", "@daily", "cron expression or @daily/@hourly")
	return cmd
}
