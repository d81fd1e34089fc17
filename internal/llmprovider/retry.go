package llmprovider

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sopaco/deepwiki-rs/internal/apperr"
)

// retryWithBackoff runs op up to maxRetries+1 times, retrying only on
// ErrProviderTransient (timeouts, 5xx, rate-limit) with exponential
// backoff and jitter, matching the teacher's HTTPClient.DoJSON shape
// generalized with jitter per spec §4.3. Permanent failures and context
// cancellation return immediately.
func retryWithBackoff[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}

	var lastErr error
	var zero T
	attempts := maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, apperr.ErrCancelled
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errors.Is(err, apperr.ErrProviderTransient) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<attempt)
		jitter := time.Duration(rand.Int63n(int64(delay) / 2))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return zero, apperr.ErrCancelled
		}
	}
	return zero, lastErr
}
