package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/apperr"
	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
)

type stubTransport struct {
	text string
}

func (s *stubTransport) Complete(ctx context.Context, messages []llmprovider.Message, schema map[string]interface{}, tools []llmprovider.ToolDef) (llmprovider.CompletionResult, error) {
	return llmprovider.CompletionResult{Text: s.text}, nil
}

func newTestExecutor(t *testing.T, responseText string) *Executor {
	t.Helper()
	mgr, err := cache.New(config.CacheConfig{Enabled: true, Backend: "disk", RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	client := llmprovider.NewClientWithTransports(
		config.ProviderConfig{Kind: "openai", PrimaryModel: "m1"},
		mgr, &stubTransport{text: responseText}, nil,
	)
	compressor := NewCompressor(config.CompressionConfig{ThresholdTokens: 64000, HardCeiling: 150000}, client)
	return &Executor{
		Memory:     memory.New(),
		Client:     client,
		Compressor: compressor,
	}
}

func TestRunPlainStoresResult(t *testing.T) {
	e := newTestExecutor(t, "# Section\n")

	base := Base{
		Name:           "overview",
		OpeningSection: "Summarize the system.",
		ClosingSection: "Use Markdown.",
		OutputScope:    memory.ScopeDocumentation,
		OutputKey:      "overview",
	}

	result, err := e.RunPlain(context.Background(), "compose", base, nil)
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if result != "# Section\n" {
		t.Fatalf("got %q", result)
	}

	stored, ok := memory.Get[string](e.Memory, memory.ScopeDocumentation, "overview")
	if !ok || stored != result {
		t.Fatalf("expected result stored, got ok=%v stored=%q", ok, stored)
	}
}

func TestResolveInputsMissingRequiredFails(t *testing.T) {
	e := newTestExecutor(t, "ignored")

	base := Base{
		Name: "workflows",
		Inputs: []Input{
			ResearchInput[string]("SYSTEM_CONTEXT", "system_context", true),
		},
		OutputScope: memory.ScopeDocumentation,
		OutputKey:   "workflows",
	}

	_, err := e.RunPlain(context.Background(), "compose", base, nil)
	if !errors.Is(err, apperr.ErrDependencyMissing) {
		t.Fatalf("expected ErrDependencyMissing, got %v", err)
	}
}

func TestResolveInputsMissingOptionalRendersEmpty(t *testing.T) {
	e := newTestExecutor(t, "ok")

	base := Base{
		Name: "workflows",
		Inputs: []Input{
			ResearchInput[string]("SYSTEM_CONTEXT", "system_context", false),
		},
		OutputScope: memory.ScopeDocumentation,
		OutputKey:   "workflows",
	}

	_, err := e.RunPlain(context.Background(), "compose", base, nil)
	if err != nil {
		t.Fatalf("expected no error for missing optional dependency, got %v", err)
	}
}

func TestRunPlainUsesResolvedMemoryInput(t *testing.T) {
	e := newTestExecutor(t, "final text")
	if err := e.Memory.Store(memory.ScopeResearch, "system_context", "the system is a CLI tool"); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	base := Base{
		Name: "workflows",
		Inputs: []Input{
			ResearchInput[string]("SYSTEM_CONTEXT", "system_context", true),
		},
		OutputScope: memory.ScopeDocumentation,
		OutputKey:   "workflows",
	}

	result, err := e.RunPlain(context.Background(), "compose", base, nil)
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if result != "final text" {
		t.Fatalf("got %q", result)
	}
}

type extractPayload struct {
	Summary string `json:"summary"`
}

func TestRunExtractStoresTypedResult(t *testing.T) {
	e := newTestExecutor(t, `{"summary":"ok"}`)

	base := Base{
		Name:        "system_context",
		OutputScope: memory.ScopeResearch,
		OutputKey:   "system_context",
	}

	result, err := RunExtract[extractPayload](context.Background(), e, "research", base, nil)
	if err != nil {
		t.Fatalf("RunExtract: %v", err)
	}
	if result.Summary != "ok" {
		t.Fatalf("got %+v", result)
	}

	stored, ok := memory.Get[extractPayload](e.Memory, memory.ScopeResearch, "system_context")
	if !ok || stored.Summary != "ok" {
		t.Fatalf("expected typed result stored, got ok=%v stored=%+v", ok, stored)
	}
}

func TestPostProcessFailureIsFatal(t *testing.T) {
	e := newTestExecutor(t, "# Section\n")

	base := Base{
		Name:        "overview",
		OutputScope: memory.ScopeDocumentation,
		OutputKey:   "overview",
	}

	_, err := e.RunPlain(context.Background(), "compose", base, func(ctx context.Context, result string) error {
		return errors.New("validation failed")
	})
	if err == nil {
		t.Fatal("expected post-process failure to propagate")
	}
}
