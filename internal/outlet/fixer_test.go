package outlet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMermaidFixerClosesUnbalancedSubgraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "architecture.md")
	content := "# Architecture\n\n```mermaid\ngraph TD\nsubgraph API\nA --> B\n```\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := NewMermaidFixer().FixDir(dir); err != nil {
		t.Fatalf("FixDir: %v", err)
	}

	fixed, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixed file: %v", err)
	}
	if !strings.Contains(string(fixed), "subgraph API\nA --> B\nend") {
		t.Fatalf("expected subgraph to be closed, got:\n%s", fixed)
	}
}

func TestMermaidFixerNormalizesSmartQuotes(t *testing.T) {
	out := fixBlock(`A["It's “quoted”"] --> B`)
	if strings.ContainsAny(out, "“”‘’") {
		t.Fatalf("expected smart quotes to be normalized, got %q", out)
	}
}

func TestMermaidFixerLeavesBalancedDiagramsUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.md")
	content := "```mermaid\ngraph TD\nA --> B\n```\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := NewMermaidFixer().FixDir(dir); err != nil {
		t.Fatalf("FixDir: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(after) != content {
		t.Fatalf("expected untouched content, got %q", after)
	}
}
