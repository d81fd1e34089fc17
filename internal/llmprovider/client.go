package llmprovider

import (
	"context"
	"fmt"
	"log"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/cache"
)

// Client is the Provider Facade (C3): every operation consults the
// response cache before dispatching and writes on success, retries
// transient failures with backoff, and falls back from the primary to
// the secondary model on unretryable extraction failure.
type Client struct {
	cfg          config.ProviderConfig
	primary      Transport
	fallback     Transport
	skipFallback bool
	cacheMgr     *cache.Manager
	logger       *log.Logger
}

// NewClient constructs the facade's primary and fallback transports.
func NewClient(cfg config.ProviderConfig, cacheMgr *cache.Manager) (*Client, error) {
	primary, err := NewTransport(TransportConfig{
		Kind:        Kind(cfg.Kind),
		Model:       cfg.PrimaryModel,
		APIBaseURL:  cfg.APIBaseURL,
		Credential:  cfg.Credential,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		primary:  primary,
		cacheMgr: cacheMgr,
		logger:   log.New(log.Writer(), "[PROVIDER] ", log.LstdFlags),
	}

	if cfg.SameAsFallback() {
		// Open-question decision recorded in SPEC_FULL.md §4.3: identical
		// primary/fallback models would duplicate work, so fallback
		// dispatch is skipped entirely.
		c.skipFallback = true
		if cfg.FallbackModel != "" {
			c.logger.Printf("fallback model %q is identical to primary; fallback dispatch disabled", cfg.FallbackModel)
		}
		return c, nil
	}

	fallback, err := NewTransport(TransportConfig{
		Kind:        Kind(cfg.Kind),
		Model:       cfg.FallbackModel,
		APIBaseURL:  cfg.APIBaseURL,
		Credential:  cfg.Credential,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	c.fallback = fallback
	return c, nil
}

// NewClientWithTransports builds a Client around already-constructed
// transports, bypassing NewTransport's kind dispatch. Used by tests and
// by callers wiring a custom transport (e.g. an in-process stub
// provider for offline runs).
func NewClientWithTransports(cfg config.ProviderConfig, cacheMgr *cache.Manager, primary, fallback Transport) *Client {
	return &Client{
		cfg:          cfg,
		primary:      primary,
		fallback:     fallback,
		skipFallback: fallback == nil,
		cacheMgr:     cacheMgr,
		logger:       log.New(log.Writer(), "[PROVIDER] ", log.LstdFlags),
	}
}

// Complete performs a single-turn completion, consulting/writing the
// response cache under category.
func (c *Client) Complete(ctx context.Context, category, sys, user string) (string, error) {
	text, _, err := c.CompleteWithUsage(ctx, category, sys, user)
	return text, err
}

// CompleteWithUsage is Complete plus the turn's token usage, for callers
// (the agent runtime's telemetry recording) that need it. A cache hit
// reports zero usage: no LLM call was actually made, so nothing was
// consumed — the cache's own saved-cost accounting (cache.Report) is
// where a hit's notional savings are tracked.
func (c *Client) CompleteWithUsage(ctx context.Context, category, sys, user string) (string, Usage, error) {
	prompt := sys + "\x00" + user
	if cached, ok := cache.Get[cachedCompletion](c.cacheMgr, category, prompt, c.cfg.PrimaryModel, c.cfg.Temperature); ok {
		return cached.Text, Usage{}, nil
	}

	messages := []Message{{Role: RoleSystem, Content: sys}, {Role: RoleUser, Content: user}}
	result, err := retryWithBackoff(ctx, c.cfg.MaxRetries, 0, func(ctx context.Context) (CompletionResult, error) {
		return c.primary.Complete(ctx, messages, nil, nil)
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("llmprovider: complete: %w", err)
	}

	cached := cachedCompletion{Text: result.Text, Usage: result.Usage}
	if err := cache.Set(c.cacheMgr, category, prompt, c.cfg.PrimaryModel, c.cfg.Temperature, cached, &cache.TokenUsage{
		InputTokens: result.Usage.InputTokens, OutputTokens: result.Usage.OutputTokens,
	}); err != nil {
		c.logger.Printf("cache write failed: %v", err)
	}
	return result.Text, result.Usage, nil
}

// cachedCompletion is Complete's cache payload: the text plus the usage
// that produced it, kept for parity with Entry.TokenUsage even though
// CompleteWithUsage reports zero usage on a cache hit (see above).
type cachedCompletion struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// ModelID returns the primary model id, for telemetry labeling.
func (c *Client) ModelID() string {
	return c.cfg.PrimaryModel
}
