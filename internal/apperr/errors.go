// Package apperr defines the error taxonomy shared across the pipeline
// (spec §7). Every sentinel here is meant to be wrapped with %w so
// callers can errors.Is/errors.As up the call stack; none of these are
// themselves fatal to the process — the orchestrator layers decide what
// is fatal to an agent, a stage, or the pipeline.
package apperr

import "errors"

var (
	// ErrConfig indicates invalid or missing configuration. Fatal at startup.
	ErrConfig = errors.New("config error")

	// ErrDependencyMissing indicates a required memory input was not
	// present when an agent tried to resolve its inputs. Fatal for the
	// agent; the orchestrator decides whether fatal for the stage.
	ErrDependencyMissing = errors.New("dependency missing")

	// ErrProviderTransient covers timeouts, 5xx, and rate-limit responses.
	// Retried with backoff; exhausted retries escalate.
	ErrProviderTransient = errors.New("provider transient error")

	// ErrProviderPermanent covers 4xx (non-rate-limit) and auth failures.
	// Immediate escalation, never retried.
	ErrProviderPermanent = errors.New("provider permanent error")

	// ErrExtractionInvalid indicates schema validation failed after
	// max_retries. Escalates to the fallback model; if that also fails,
	// the error surfaces to the caller.
	ErrExtractionInvalid = errors.New("extraction invalid")

	// ErrMaxDepthExceeded indicates the reasoning loop hit its iteration
	// cap with no summarizer configured.
	ErrMaxDepthExceeded = errors.New("max reasoning depth exceeded")

	// ErrContextTooLarge indicates a prompt exceeded the hard token
	// ceiling even after compression.
	ErrContextTooLarge = errors.New("context too large")

	// ErrToolError indicates a tool invocation failed; it is surfaced to
	// the reasoning loop, which is allowed to recover from it.
	ErrToolError = errors.New("tool error")

	// ErrIO covers cache or knowledge-store file operations; swallowed to
	// a miss at the cache layer, escalated from the knowledge store.
	ErrIO = errors.New("io error")

	// ErrCancelled is propagated from the pipeline driver's cancellation
	// signal.
	ErrCancelled = errors.New("cancelled")
)

// taxonomy lists the sentinels Taxon checks, most specific first where
// wrapping could otherwise make two sentinels both match.
var taxonomy = []struct {
	err   error
	taxon string
}{
	{ErrDependencyMissing, "dependency_missing"},
	{ErrProviderTransient, "provider_transient"},
	{ErrProviderPermanent, "provider_permanent"},
	{ErrExtractionInvalid, "extraction_invalid"},
	{ErrMaxDepthExceeded, "max_depth_exceeded"},
	{ErrContextTooLarge, "context_too_large"},
	{ErrToolError, "tool_error"},
	{ErrIO, "io_error"},
	{ErrCancelled, "cancelled"},
	{ErrConfig, "config_error"},
}

// Taxon classifies err against the error taxonomy above, for the summary
// report's per-agent failure taxon (spec §7). Returns "" for a nil error
// and "unknown" for an error outside the taxonomy.
func Taxon(err error) string {
	if err == nil {
		return ""
	}
	for _, t := range taxonomy {
		if errors.Is(err, t.err) {
			return t.taxon
		}
	}
	return "unknown"
}

// DependencyMissing constructs a descriptive ErrDependencyMissing wrapper.
func DependencyMissing(scope, key string) error {
	return &scopedError{base: ErrDependencyMissing, scope: scope, key: key}
}

type scopedError struct {
	base  error
	scope string
	key   string
}

func (e *scopedError) Error() string {
	return e.base.Error() + ": " + e.scope + ":" + e.key
}

func (e *scopedError) Unwrap() error { return e.base }
