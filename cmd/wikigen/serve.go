package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/telemetry"
)

// serveCmd runs a small liveness surface (/healthz) alongside the
// telemetry metrics endpoint, grounded on the teacher's serveCMD
// (cmd/serve.go) wiring a cobra command around an HTTP server.
func serveCmd() *cobra.Command {
	var cfgPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a health/metrics HTTP surface for scheduled documentation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			provider, _, err := telemetry.Setup(cfg.Telemetry, telemetry.Options{ServiceName: "wikigen", ServiceVersion: "dev"})
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			defer func() { _ = provider.Shutdown(context.Background()) }()

			e := echo.New()
			e.HideBanner = true
			e.GET("/healthz", func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})

			errCh := make(chan error, 1)
			go func() { errCh <- e.Start(addr) }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			case <-sigCh:
				return e.Shutdown(context.Background())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default deepwiki.yaml in the working directory)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address for /healthz")
	return cmd
}
