package agent

import (
	"context"
	"fmt"

	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
)

// RunExtract executes the lifecycle in Extract[T] call mode: the typed
// result is stored under base.OutputScope/base.OutputKey and returned.
// A free function rather than an Executor method, since Go does not
// allow type parameters on methods. The run is wrapped in a telemetry
// span and recorded as one agent outcome (spec §7).
func RunExtract[T any](ctx context.Context, e *Executor, category string, base Base, postProcess func(context.Context, T) error) (T, error) {
	var zero T
	var result T

	runErr := e.withAgentSpan(ctx, category, base.Name, func(ctx context.Context) (llmprovider.Usage, error) {
		resolved, err := e.resolveInputs(base.Inputs, base.Name)
		if err != nil {
			return llmprovider.Usage{}, err
		}
		sys, user := e.buildPrompt(base, resolved)

		prunedUser, err := e.Compressor.Prune(ctx, user)
		if err != nil {
			return llmprovider.Usage{}, fmt.Errorf("agent %s: %w", base.Name, err)
		}

		extracted, usage, err := llmprovider.Extract[T](ctx, e.Client, category, sys, prunedUser)
		if err != nil {
			return usage, fmt.Errorf("agent %s: %w", base.Name, err)
		}
		result = extracted

		if err := e.Memory.Store(base.OutputScope, base.OutputKey, result); err != nil {
			return usage, fmt.Errorf("agent %s: store result: %w", base.Name, err)
		}

		if postProcess != nil {
			if err := postProcess(ctx, result); err != nil {
				return usage, fmt.Errorf("agent %s: post-process: %w", base.Name, err)
			}
		}
		return usage, nil
	})
	if runErr != nil {
		return zero, runErr
	}
	return result, nil
}
