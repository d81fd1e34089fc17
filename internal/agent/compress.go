package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/apperr"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
)

const compressionCacheCategory = "compression"

// Compressor implements the lifecycle's prune step (spec §4.5 step 3):
// a soft ceiling triggers a dedicated, separately-cached LLM call that
// compresses the prompt while preserving configured syntactic elements;
// a hard ceiling aborts with ErrContextTooLarge before any call is made.
type Compressor struct {
	cfg    config.CompressionConfig
	client *llmprovider.Client
}

// NewCompressor constructs a Compressor over the given configuration and
// provider client. The client's own cache is reused for the compression
// call since it is keyed by category, isolating it from ordinary agent
// calls.
func NewCompressor(cfg config.CompressionConfig, client *llmprovider.Client) *Compressor {
	return &Compressor{cfg: cfg, client: client}
}

// Prune estimates prompt's token count and, if it exceeds the soft
// ceiling, invokes the compressor. It returns the (possibly unchanged)
// prompt, or ErrContextTooLarge if the hard ceiling is exceeded even
// before compression is attempted.
func (c *Compressor) Prune(ctx context.Context, prompt string) (string, error) {
	soft := c.cfg.ThresholdTokens
	if soft <= 0 {
		soft = 64000
	}
	hard := c.cfg.HardCeiling
	if hard <= 0 {
		hard = 150000
	}

	estimate := EstimateTokens(prompt)
	if estimate.EstimatedTokens > hard {
		return "", fmt.Errorf("%w: estimated %d tokens exceeds hard ceiling %d", apperr.ErrContextTooLarge, estimate.EstimatedTokens, hard)
	}
	if estimate.EstimatedTokens <= soft {
		return prompt, nil
	}

	sys := c.compressionSystemPrompt()
	compressed, err := c.client.Complete(ctx, compressionCacheCategory, sys, prompt)
	if err != nil {
		return "", fmt.Errorf("agent: compress: %w", err)
	}

	compressedEstimate := EstimateTokens(compressed)
	if compressedEstimate.EstimatedTokens > hard {
		return "", fmt.Errorf("%w: compressed output still %d tokens, exceeds hard ceiling %d", apperr.ErrContextTooLarge, compressedEstimate.EstimatedTokens, hard)
	}
	return compressed, nil
}

func (c *Compressor) compressionSystemPrompt() string {
	patterns := c.cfg.PreservePatterns
	if len(patterns) == 0 {
		patterns = []string{
			"function_signatures", "type_definitions", "import_statements",
			"interface_definitions", "error_handling", "configuration",
		}
	}
	target := c.cfg.TargetRatio
	if target <= 0 {
		target = 0.5
	}
	var b strings.Builder
	b.WriteString("You compress source-derived prompts for a documentation pipeline. ")
	fmt.Fprintf(&b, "Reduce the input to roughly %.0f%% of its original length while always preserving: %s. ", target*100, strings.Join(patterns, ", "))
	b.WriteString("Remove redundant prose and repeated boilerplate first. Respond with only the compressed text.")
	return b.String()
}
