package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestSyncAndLoadForRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	cacheDir := t.TempDir()
	writeTestFile(t, srcDir, "a.md", "alpha document body")
	writeTestFile(t, srcDir, "b.md", "beta document body")

	cfg := config.KnowledgeConfig{
		CacheDir:        cacheDir,
		MetadataBackend: "file",
		MaxChunksPerLoad: 50,
		Chunking:        config.ChunkingConfig{Strategy: "paragraph"},
		Categories: []config.KnowledgeCategory{
			{Name: "docs", Patterns: []string{filepath.Join(srcDir, "*.md")}},
		},
	}

	store, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	reports, err := store.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(reports) != 1 || reports[0].FilesAdded != 2 {
		t.Fatalf("expected 2 files added, got %+v", reports)
	}

	blob, err := store.LoadFor("docs", "")
	if err != nil {
		t.Fatalf("LoadFor: %v", err)
	}
	if !strings.Contains(blob, "alpha document body") || !strings.Contains(blob, "beta document body") {
		t.Fatalf("expected both documents in blob, got %q", blob)
	}
	if !strings.Contains(blob, "Documents: 2") {
		t.Fatalf("expected document count header, got %q", blob)
	}
}

func TestSyncIsIdempotentOnUnchangedFiles(t *testing.T) {
	srcDir := t.TempDir()
	cacheDir := t.TempDir()
	writeTestFile(t, srcDir, "a.md", "unchanging content")

	cfg := config.KnowledgeConfig{
		CacheDir:        cacheDir,
		MetadataBackend: "file",
		Chunking:        config.ChunkingConfig{Strategy: "paragraph"},
		Categories: []config.KnowledgeCategory{
			{Name: "docs", Patterns: []string{filepath.Join(srcDir, "*.md")}},
		},
	}

	store, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Sync(context.Background()); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	store2, err := New(cfg)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	reports, err := store2.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if reports[0].FilesAdded != 0 || reports[0].FilesUpdated != 0 || reports[0].FilesRemoved != 0 {
		t.Fatalf("expected zero deltas on unchanged resync, got %+v", reports[0])
	}
}

func TestLoadForScopesByTargetAgent(t *testing.T) {
	srcDir := t.TempDir()
	cacheDir := t.TempDir()
	writeTestFile(t, srcDir, "a.md", "scoped document body")

	cfg := config.KnowledgeConfig{
		CacheDir:        cacheDir,
		MetadataBackend: "file",
		Chunking:        config.ChunkingConfig{Strategy: "paragraph"},
		Categories: []config.KnowledgeCategory{
			{Name: "docs", Patterns: []string{filepath.Join(srcDir, "*.md")}, TargetAgents: []string{"system_context_researcher"}},
		},
	}

	store, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if _, err := store.LoadFor("docs", "other_agent"); err != nil {
		t.Fatalf("LoadFor (excluded agent) should not error, got %v", err)
	}
	blob, _ := store.LoadFor("docs", "other_agent")
	if strings.Contains(blob, "scoped document body") {
		t.Fatalf("expected agent-scoped exclusion, got %q", blob)
	}

	blob2, _ := store.LoadFor("docs", "system_context_researcher")
	if !strings.Contains(blob2, "scoped document body") {
		t.Fatalf("expected inclusion for matching target agent, got %q", blob2)
	}
}
