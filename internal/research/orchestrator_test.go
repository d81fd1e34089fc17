package research

import (
	"context"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

type researchStubTransport struct{}

func (researchStubTransport) Complete(ctx context.Context, messages []llmprovider.Message, schema map[string]interface{}, tools []llmprovider.ToolDef) (llmprovider.CompletionResult, error) {
	if schema == nil {
		if len(tools) > 0 {
			return llmprovider.CompletionResult{Text: "The system is layered.\n\n```mermaid\ngraph TD; A-->B;\n```\n"}, nil
		}
		return llmprovider.CompletionResult{Text: "ok"}, nil
	}
	inner, _ := schema["schema"].(map[string]interface{})
	props, _ := inner["properties"].(map[string]interface{})

	switch {
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

func newResearchExecutor(t *testing.T) *agent.Executor {
	t.Helper()
	mgr, err := cache.New(config.CacheConfig{Enabled: true, Backend: "disk", RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	client := llmprovider.NewClientWithTransports(
		config.ProviderConfig{Kind: "openai", PrimaryModel: "m1"},
		mgr, researchStubTransport{}, nil,
	)
	compressor := agent.NewCompressor(config.CompressionConfig{ThresholdTokens: 64000, HardCeiling: 150000}, client)
	return &agent.Executor{Memory: memory.New(), Client: client, Compressor: compressor}
}

func seedPreprocessMemory(t *testing.T, mem *memory.Memory) {
	t.Helper()
	insights := []models.CodeInsight{
		{Path: "main.go", Purpose: models.PurposeEntry, ImportanceScore: 0.9},
		{Path: "db/schema.sql", Purpose: models.PurposeDatabase, ImportanceScore: 0.6},
	}
	structure := preprocess.ProjectStructure{
		ProjectName: "demo",
		Files: []preprocess.FileInfo{
			{Path: "main.go", Name: "main.go", Extension: "go", IsCore: true},
			{Path: "db/schema.sql", Name: "schema.sql", Extension: "sql", IsCore: true},
		},
	}
	if err := mem.Store(memory.ScopePreprocess, preprocess.KeyCodeInsights, insights); err != nil {
		t.Fatalf("seed insights: %v", err)
	}
	if err := mem.Store(memory.ScopePreprocess, preprocess.KeyProjectStructure, structure); err != nil {
		t.Fatalf("seed structure: %v", err)
	}
	if err := mem.Store(memory.ScopePreprocess, preprocess.KeyRelationships, models.RelationshipAnalysis{Summary: "tight"}); err != nil {
		t.Fatalf("seed relationships: %v", err)
	}
	if err := mem.Store(memory.ScopePreprocess, preprocess.KeyOriginalDocument, []preprocess.OriginalDocument{}); err != nil {
		t.Fatalf("seed docs: %v", err)
	}
}

func TestOrchestratorRunPublishesAllResearchKeys(t *testing.T) {
	executor := newResearchExecutor(t)
	seedPreprocessMemory(t, executor.Memory)

	orch := New(executor, nil, nil, config.ProviderConfig{MaxIterations: 3, MaxParallels: 2}, []string{"sql"})
	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, key := range []string{KeySystemContext, KeyDomainModules, KeyArchitecture, KeyWorkflows, KeyKeyModules, KeyBoundaries, KeyDatabase} {
		if !executor.Memory.Has(memory.ScopeResearch, key) {
			t.Fatalf("expected research key %q to be published", key)
		}
	}
}

func TestOrchestratorSkipsDatabaseAgentWhenNoDatabaseFiles(t *testing.T) {
	executor := newResearchExecutor(t)
	mem := executor.Memory
	insights := []models.CodeInsight{{Path: "main.go", Purpose: models.PurposeEntry, ImportanceScore: 0.9}}
	structure := preprocess.ProjectStructure{Files: []preprocess.FileInfo{{Path: "main.go", Extension: "go", IsCore: true}}}
	_ = mem.Store(memory.ScopePreprocess, preprocess.KeyCodeInsights, insights)
	_ = mem.Store(memory.ScopePreprocess, preprocess.KeyProjectStructure, structure)
	_ = mem.Store(memory.ScopePreprocess, preprocess.KeyRelationships, models.RelationshipAnalysis{Summary: "tight"})
	_ = mem.Store(memory.ScopePreprocess, preprocess.KeyOriginalDocument, []preprocess.OriginalDocument{})

	orch := New(executor, nil, nil, config.ProviderConfig{MaxIterations: 3, MaxParallels: 2}, []string{"sql"})
	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mem.Has(memory.ScopeResearch, KeyDatabase) {
		t.Fatal("expected database agent to be skipped without database files")
	}
}

func TestFilterByPurposeCapsAtLimit(t *testing.T) {
	insights := []models.CodeInsight{
		{Path: "a.go", Purpose: models.PurposeEntry},
		{Path: "b.go", Purpose: models.PurposeEntry},
		{Path: "c.go", Purpose: models.PurposeModel},
	}
	out := filterByPurpose(insights, map[string]bool{"entry": true}, 1)
	if len(out) != 1 || out[0].Path != "a.go" {
		t.Fatalf("got %+v", out)
	}
}
