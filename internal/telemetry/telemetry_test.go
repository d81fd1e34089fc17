package telemetry

import (
	"context"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
)

func TestSetupDisabledReturnsNoopProvider(t *testing.T) {
	provider, tracer, err := Setup(config.TelemetryConfig{Enabled: false}, Options{ServiceName: "test"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if tracer == nil {
		t.Fatal("expected a non-nil tracer even when telemetry is disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestNilProviderShutdownIsNoop(t *testing.T) {
	var p *Provider
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil-safe Shutdown, got %v", err)
	}
}
