package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/tools"
)

// pipelineStubTransport stands in for every LLM call the full pipeline
// makes end to end: preprocess's purpose-classifier/responsibility/
// relationship Extract calls, research's seven Extract/WithTools
// agents, and compose's Plain/WithTools editors.
type pipelineStubTransport struct{}

func (pipelineStubTransport) Complete(ctx context.Context, messages []llmprovider.Message, schema map[string]interface{}, tools []llmprovider.ToolDef) (llmprovider.CompletionResult, error) {
	if schema == nil {
		if len(tools) > 0 {
			return llmprovider.CompletionResult{Text: "## Narrative\n\nSteps happen in order.\n\n```mermaid\ngraph TD; A-->B;\n```\n"}, nil
		}
		return llmprovider.CompletionResult{Text: "# Doc Section\n\nGenerated narrative.\n"}, nil
	}

	inner, _ := schema["schema"].(map[string]interface{})
	props, _ := inner["properties"].(map[string]interface{})

	switch {
	case has(props, "purpose") && has(props, "confidence"):
		return llmprovider.CompletionResult{Text: `{"purpose":"business_logic","confidence":0.9}`}, nil
	case has(props, "module_groups"):
		return llmprovider.CompletionResult{Text: `{"summary":"A small web service.","module_groups":[{"name":"core","files":["main.go"],"description":"entrypoint"}],"key_dependency_chains":["main -> router"]}`}, nil
	case len(props) == 1 && has(props, "summary"):
		return llmprovider.CompletionResult{Text: `{"summary":"handles request routing"}`}, nil
	case has(props, "modules"):
		return llmprovider.CompletionResult{Text: `{"modules":[{"name":"core","description":"core domain","files":["main.go"]}]}`}, nil
	case has(props, "workflows"):
		return llmprovider.CompletionResult{Text: `{"workflows":[{"name":"startup","steps":[{"name":"init","description":"boot"}]}]}`}, nil
	case has(props, "interfaces"):
		return llmprovider.CompletionResult{Text: `{"interfaces":[{"path":"main.go","purpose":"entry","description":"entrypoint"}]}`}, nil
	case has(props, "tables"):
		return llmprovider.CompletionResult{Text: `{"summary":"a small schema","tables":[{"name":"users","description":"user accounts","columns":["id","name"]}]}`}, nil
	case has(props, "key_files"):
		return llmprovider.CompletionResult{Text: `{"module":"","summary":"handles the core domain","key_files":["main.go"],"responsibilities":["boot"]}`}, nil
	case has(props, "actors"):
		return llmprovider.CompletionResult{Text: `{"summary":"a demo service","purpose":"demonstration","actors":["operator"],"external_systems":[]}`}, nil
	}
	return llmprovider.CompletionResult{Text: "{}"}, nil
}

func has(props map[string]interface{}, key string) bool {
	_, ok := props[key]
	return ok
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestDriverExecuteRunsFullPipelineAndWritesOutput(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Demo\n\nA demo project.\n")
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "internal/router/router.go", "package router\n\nfunc New() {}\n")
	writeFile(t, root, "db/schema.sql", "CREATE TABLE users (id INT);\n")

	outDir := filepath.Join(t.TempDir(), "docs")
	cfg := &config.Config{
		Provider:    config.ProviderConfig{Kind: "openai", PrimaryModel: "m1", MaxIterations: 3, MaxParallels: 2},
		Preprocess:  config.PreprocessConfig{MaxDepth: 10, ImportanceThreshold: 0.1, AIConfidenceThreshold: 0.95},
		Compression: config.CompressionConfig{ThresholdTokens: 64000, HardCeiling: 150000},
		Output:      config.OutputConfig{TargetLanguage: "en", OutputDir: outDir},
	}

	mgr, err := cache.New(config.CacheConfig{Enabled: true, Backend: "disk", RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	client := llmprovider.NewClientWithTransports(cfg.Provider, mgr, pipelineStubTransport{}, nil)
	compressor := agent.NewCompressor(cfg.Compression, client)

	d := New(cfg, root)
	executor := &agent.Executor{
		Memory:              d.mem,
		Client:              client,
		Compressor:          compressor,
		LanguageInstruction: LanguageEnglish.PromptInstruction(),
	}
	registry := tools.NewRegistry(root, cfg.Preprocess.ExcludedDirs, nil)

	if err := d.execute(context.Background(), executor, registry, LanguageEnglish, mgr); err != nil {
		t.Fatalf("execute: %v", err)
	}

	for _, file := range []string{"1.Overview.md", "2.Architecture.md", "3.Workflow.md", "5.Boundary-Interfaces.md", "6.Database-Overview.md"} {
		path := filepath.Join(outDir, file)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to be written: %v", file, err)
		}
	}

	moduleDoc := filepath.Join(outDir, "deep_exploration", "core.md")
	if _, err := os.Stat(moduleDoc); err != nil {
		t.Fatalf("expected per-module doc at %s: %v", moduleDoc, err)
	}

	summary, err := os.ReadFile(filepath.Join(outDir, "SUMMARY.md"))
	if err != nil {
		t.Fatalf("read SUMMARY.md: %v", err)
	}
	for _, stage := range []string{TimingPreprocess, TimingResearch, TimingCompose, TimingOutput} {
		if !strings.Contains(string(summary), stage) {
			t.Fatalf("expected summary to mention stage %q, got:\n%s", stage, summary)
		}
	}
}

func TestParseTargetLanguageFallsBackToEnglish(t *testing.T) {
	lang, ok := ParseTargetLanguage("klingon")
	if ok {
		t.Fatal("expected unknown language to report ok=false")
	}
	if lang != LanguageEnglish {
		t.Fatalf("expected fallback to English, got %q", lang)
	}
}
