package outlet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sopaco/deepwiki-rs/internal/compose"
	"github.com/sopaco/deepwiki-rs/internal/memory"
)

func TestDiskOutletSaveWritesRegisteredSections(t *testing.T) {
	mem := memory.New()
	if err := mem.Store(memory.ScopeDocumentation, "overview", "# Overview\n"); err != nil {
		t.Fatalf("seed overview: %v", err)
	}
	if err := mem.Store(memory.ScopeDocumentation, "key_modules:core", "# Core\n"); err != nil {
		t.Fatalf("seed key_modules: %v", err)
	}

	tree := compose.NewDocTree()
	tree.Insert("overview", "1.Overview.md")
	tree.Insert("key_modules:core", filepath.Join("4.Deep-Exploration", "core.md"))
	tree.Insert("missing", "unused.md")

	dir := t.TempDir()
	outDir := filepath.Join(dir, "docs")
	out := NewDiskOutlet(outDir)
	if err := out.Save(mem, tree); err != nil {
		t.Fatalf("Save: %v", err)
	}

	overview, err := os.ReadFile(filepath.Join(outDir, "1.Overview.md"))
	if err != nil {
		t.Fatalf("read overview: %v", err)
	}
	if string(overview) != "# Overview\n" {
		t.Fatalf("unexpected overview content: %q", overview)
	}

	core, err := os.ReadFile(filepath.Join(outDir, "4.Deep-Exploration", "core.md"))
	if err != nil {
		t.Fatalf("read core module doc: %v", err)
	}
	if string(core) != "# Core\n" {
		t.Fatalf("unexpected core content: %q", core)
	}

	if _, err := os.Stat(filepath.Join(outDir, "unused.md")); !os.IsNotExist(err) {
		t.Fatal("expected missing section to be skipped, not written")
	}
}

func TestDiskOutletSaveClearsPriorOutput(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "docs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := filepath.Join(outDir, "stale.md")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	mem := memory.New()
	out := NewDiskOutlet(outDir)
	if err := out.Save(mem, compose.NewDocTree()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected stale output to be removed before re-save")
	}
}
