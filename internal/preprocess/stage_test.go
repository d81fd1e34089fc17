package preprocess

import (
	"context"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/models"
)

type stageStubTransport struct{}

func (stageStubTransport) Complete(ctx context.Context, messages []llmprovider.Message, schema map[string]interface{}, tools []llmprovider.ToolDef) (llmprovider.CompletionResult, error) {
	if schema != nil {
		if inner, ok := schema["schema"].(map[string]interface{}); ok {
			if props, ok := inner["properties"].(map[string]interface{}); ok {
				if _, hasSummaryOnly := props["summary"]; hasSummaryOnly && len(props) == 1 {
					return llmprovider.CompletionResult{Text: `{"summary":"handles request routing"}`}, nil
				}
			}
		}
		return llmprovider.CompletionResult{Text: `{
			"summary": "A small web service with a router and a database layer.",
			"module_groups": [{"name": "core", "files": ["main.go"], "description": "entrypoint"}],
			"key_dependency_chains": ["main -> router"]
		}`}, nil
	}
	return llmprovider.CompletionResult{Text: "ok"}, nil
}

func newStageExecutor(t *testing.T) *agent.Executor {
	t.Helper()
	mgr, err := cache.New(config.CacheConfig{Enabled: true, Backend: "disk", RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	client := llmprovider.NewClientWithTransports(
		config.ProviderConfig{Kind: "openai", PrimaryModel: "m1"},
		mgr, stageStubTransport{}, nil,
	)
	compressor := agent.NewCompressor(config.CompressionConfig{ThresholdTokens: 64000, HardCeiling: 150000}, client)
	return &agent.Executor{Memory: memory.New(), Client: client, Compressor: compressor}
}

func TestStageRunPublishesAllPreprocessKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Demo\n\nA demo project.\n")
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "internal/router/router.go", "package router\n\nfunc New() {}\n")

	mem := memory.New()
	executor := newStageExecutor(t)
	executor.Memory = mem

	cfg := config.PreprocessConfig{MaxDepth: 10, ImportanceThreshold: 0.1, AIConfidenceThreshold: 0.7}
	stage := New(cfg, root, mem, executor)

	if err := stage.Run(context.Background(), 2); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !mem.Has(memory.ScopePreprocess, KeyOriginalDocument) {
		t.Fatal("expected original_document key to be published")
	}
	if !mem.Has(memory.ScopePreprocess, KeyProjectStructure) {
		t.Fatal("expected project_structure key to be published")
	}
	insights, ok := memory.Get[[]models.CodeInsight](mem, memory.ScopePreprocess, KeyCodeInsights)
	if !ok || len(insights) == 0 {
		t.Fatalf("expected code insights to be published, got ok=%v len=%d", ok, len(insights))
	}
	if !mem.Has(memory.ScopePreprocess, KeyRelationships) {
		t.Fatal("expected relationships key to be published")
	}
}

func TestHasDatabaseFilesByPurpose(t *testing.T) {
	insights := []models.CodeInsight{{Path: "schema.sql", Purpose: models.PurposeDatabase}}
	if !HasDatabaseFiles(insights, nil, nil) {
		t.Fatal("expected database purpose to trigger")
	}
}

func TestHasDatabaseFilesByExtension(t *testing.T) {
	files := []FileInfo{{Path: "schema.sql", Extension: "sql"}}
	if !HasDatabaseFiles(nil, files, []string{"sql", "sqlproj"}) {
		t.Fatal("expected configured extension to trigger")
	}
}

func TestHasDatabaseFilesNeitherTriggers(t *testing.T) {
	files := []FileInfo{{Path: "main.go", Extension: "go"}}
	if HasDatabaseFiles(nil, files, []string{"sql"}) {
		t.Fatal("expected no trigger for an unrelated project")
	}
}
