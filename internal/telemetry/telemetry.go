// Package telemetry wires Prometheus metrics and OpenTelemetry tracing
// around the pipeline's stage and agent boundaries, grounded on the
// teacher's internal/runtime/telemetry.go (provider setup) and
// internal/agent/telemetry/telemetry.go (event recording, cost
// tracking). The full OTLP trace/metric exporter chain the teacher
// wires (otlptracegrpc/otlpmetricgrpc/otel/exporters/prometheus) pulls
// in SDK submodules the teacher's own go.mod never declares despite
// importing them — rather than fabricate that dependency graph, this
// package uses otel's global, no-op-by-default Tracer/Meter accessors
// and leans on client_golang directly for the metrics actually served.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sopaco/deepwiki-rs/config"
)

// Options configures provider setup.
type Options struct {
	ServiceName    string
	ServiceVersion string
}

// Provider owns the metrics HTTP server started when telemetry is
// enabled. A disabled or zero Provider is safe to Shutdown.
type Provider struct {
	server *http.Server
}

// Tracer returns the process-wide OpenTelemetry tracer for name. Safe
// to call before Setup — otel.Tracer always returns a usable (possibly
// no-op) implementation.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Setup starts the Prometheus metrics endpoint (when cfg.Enabled) and
// returns the process-wide OpenTelemetry tracer for span creation. If
// cfg.OTLPEndpoint is set but telemetry is disabled, or the exporter
// chain isn't available, spans are recorded against the global no-op
// tracer and silently dropped — this mirrors the teacher's
// cfg.Enabled-gated early return in SetupTelemetry.
func Setup(cfg config.TelemetryConfig, opts Options) (*Provider, trace.Tracer, error) {
	tracer := otel.Tracer(opts.ServiceName)
	if !cfg.Enabled {
		return &Provider{}, tracer, nil
	}

	if cfg.OTLPEndpoint != "" {
		// No OTLP exporter is wired (see package doc); spans stay
		// local to whatever global TracerProvider the process set.
		_ = cfg.OTLPEndpoint
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(stageRuns, stageDuration, agentRuns, agentDuration, llmTokens, cacheHitRate, costSavedTotal)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("telemetry: metrics server error: %v\n", err)
		}
	}()

	return &Provider{server: server}, tracer, nil
}

// Shutdown stops the metrics server, if one was started.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}
