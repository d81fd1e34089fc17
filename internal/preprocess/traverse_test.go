package preprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestTraverseSkipsExcludedAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "vendor/pkg/pkg.go", "package pkg\n")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")

	tr := NewTraverser(config.PreprocessConfig{ExcludedDirs: []string{"vendor"}, MaxDepth: 10})
	structure, err := tr.Traverse(root)
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}

	for _, f := range structure.Files {
		if f.Path == filepath.Join("vendor", "pkg", "pkg.go") {
			t.Fatalf("expected vendor file excluded, got %+v", structure.Files)
		}
		if f.Path == filepath.Join(".git", "HEAD") {
			t.Fatalf("expected hidden dir excluded, got %+v", structure.Files)
		}
	}
	if structure.TotalFiles != 1 {
		t.Fatalf("expected 1 file, got %d: %+v", structure.TotalFiles, structure.Files)
	}
}

func TestTraverseSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", "package big\n")

	tr := NewTraverser(config.PreprocessConfig{MaxDepth: 10, MaxFileReadSize: 5})
	structure, err := tr.Traverse(root)
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if structure.TotalFiles != 0 {
		t.Fatalf("expected oversized file to be skipped, got %+v", structure.Files)
	}
}

func TestScoreImportanceWeightsSourceFilesAboveThreshold(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "assets/logo.txt", "not code\n")

	tr := NewTraverser(config.PreprocessConfig{MaxDepth: 10})
	structure, err := tr.Traverse(root)
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}

	var mainScore, assetScore float64
	for _, f := range structure.Files {
		switch f.Name {
		case "main.go":
			mainScore = f.ImportanceScore
		case "logo.txt":
			assetScore = f.ImportanceScore
		}
	}
	if mainScore <= assetScore {
		t.Fatalf("expected main.go to score higher than logo.txt, got %f vs %f", mainScore, assetScore)
	}
	if mainScore < 0.5 {
		t.Fatalf("expected main.go to clear the default core threshold, got %f", mainScore)
	}
}
