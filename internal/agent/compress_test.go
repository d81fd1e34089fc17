package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/apperr"
	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
)

func newTestClientForCompress(t *testing.T, responseText string) *llmprovider.Client {
	t.Helper()
	mgr, err := cache.New(config.CacheConfig{Enabled: true, Backend: "disk", RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return llmprovider.NewClientWithTransports(
		config.ProviderConfig{Kind: "openai", PrimaryModel: "m1"},
		mgr, &stubTransport{text: responseText}, nil,
	)
}

func TestPruneBelowSoftCeilingPassesThrough(t *testing.T) {
	client := newTestClientForCompress(t, "should not be used")
	c := NewCompressor(config.CompressionConfig{ThresholdTokens: 64000, HardCeiling: 150000}, client)

	out, err := c.Prune(context.Background(), "short prompt")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if out != "short prompt" {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestPruneAboveSoftCeilingCompresses(t *testing.T) {
	client := newTestClientForCompress(t, "compressed")
	c := NewCompressor(config.CompressionConfig{ThresholdTokens: 10, HardCeiling: 150000}, client)

	out, err := c.Prune(context.Background(), strings.Repeat("word ", 50))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if out != "compressed" {
		t.Fatalf("expected compressed output, got %q", out)
	}
}

func TestPruneAboveHardCeilingFailsBeforeCompressing(t *testing.T) {
	client := newTestClientForCompress(t, "should not be called")
	c := NewCompressor(config.CompressionConfig{ThresholdTokens: 10, HardCeiling: 20}, client)

	_, err := c.Prune(context.Background(), strings.Repeat("word ", 50))
	if !errors.Is(err, apperr.ErrContextTooLarge) {
		t.Fatalf("expected ErrContextTooLarge, got %v", err)
	}
}

func TestPruneCompressedOutputStillOverHardCeilingFails(t *testing.T) {
	client := newTestClientForCompress(t, strings.Repeat("still too long ", 50))
	c := NewCompressor(config.CompressionConfig{ThresholdTokens: 10, HardCeiling: 30}, client)

	_, err := c.Prune(context.Background(), strings.Repeat("word ", 50))
	if !errors.Is(err, apperr.ErrContextTooLarge) {
		t.Fatalf("expected ErrContextTooLarge, got %v", err)
	}
}
