package knowledge

import (
	"strings"
	"testing"

	"github.com/sopaco/deepwiki-rs/config"
)

func TestChunkParagraph(t *testing.T) {
	text := "first paragraph\nstill first\n\nsecond paragraph\n\n\nthird"
	got := chunkText(text, config.ChunkingConfig{Strategy: "paragraph"})
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(got), got)
	}
}

func TestChunkSemanticSplitsOnHeaders(t *testing.T) {
	text := "# Title\nintro text\n\n## Section A\nbody a\n\n## Section B\nbody b"
	got := chunkText(text, config.ChunkingConfig{Strategy: "semantic"})
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d: %v", len(got), got)
	}
	if !strings.HasPrefix(got[1], "## Section A") {
		t.Fatalf("expected second chunk to start with Section A header, got %q", got[1])
	}
}

func TestChunkSemanticFallsBackToParagraphWithoutHeaders(t *testing.T) {
	text := "plain prose\n\nmore prose"
	got := chunkText(text, config.ChunkingConfig{Strategy: "semantic"})
	if len(got) != 2 {
		t.Fatalf("expected fallback to paragraph splitting, got %d: %v", len(got), got)
	}
}

func TestChunkFixedWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 25)
	got := chunkFixed(text, 10, 2)
	if len(got) < 3 {
		t.Fatalf("expected at least 3 windows, got %d", len(got))
	}
	for _, c := range got {
		if len(c) > 10 {
			t.Fatalf("chunk exceeds configured size: %q", c)
		}
	}
}

func TestFormatCategoryName(t *testing.T) {
	cases := map[string]string{
		"api_docs":     "Api Docs",
		"design-notes": "Design Notes",
		"":             "",
	}
	for in, want := range cases {
		if got := formatCategoryName(in); got != want {
			t.Errorf("formatCategoryName(%q) = %q, want %q", in, got, want)
		}
	}
}
