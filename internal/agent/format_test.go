package agent

import (
	"strings"
	"testing"

	"github.com/sopaco/deepwiki-rs/models"
)

func TestFormatCodeInsightsGroupsByPurposeAndSortsByImportance(t *testing.T) {
	insights := []models.CodeInsight{
		{Path: "a.go", Purpose: models.PurposeService, ImportanceScore: 0.4, ResponsibilitySummary: "low"},
		{Path: "b.go", Purpose: models.PurposeService, ImportanceScore: 0.9, ResponsibilitySummary: "high"},
		{Path: "c.go", Purpose: models.PurposeModel, ImportanceScore: 0.5, ResponsibilitySummary: "model"},
	}

	out := FormatCodeInsights(insights, FormatterConfig{})

	serviceIdx := strings.Index(out, "### service")
	modelIdx := strings.Index(out, "### model")
	if serviceIdx < 0 || modelIdx < 0 {
		t.Fatalf("expected both purpose headings, got:\n%s", out)
	}

	bIdx := strings.Index(out, "b.go")
	aIdx := strings.Index(out, "a.go")
	if bIdx < 0 || aIdx < 0 || bIdx > aIdx {
		t.Fatalf("expected higher-importance file listed first, got:\n%s", out)
	}
}

func TestFormatCodeInsightsEmpty(t *testing.T) {
	out := FormatCodeInsights(nil, FormatterConfig{})
	if !strings.Contains(out, "no code insights") {
		t.Fatalf("got %q", out)
	}
}

func TestFormatCodeInsightsTruncatesAtMax(t *testing.T) {
	insights := []models.CodeInsight{
		{Path: "a.go", Purpose: models.PurposeService, ImportanceScore: 0.9},
		{Path: "b.go", Purpose: models.PurposeService, ImportanceScore: 0.8},
		{Path: "c.go", Purpose: models.PurposeService, ImportanceScore: 0.7},
	}
	out := FormatCodeInsights(insights, FormatterConfig{MaxInsightsListed: 1})
	if !strings.Contains(out, "more files omitted") {
		t.Fatalf("expected truncation marker, got:\n%s", out)
	}
	if strings.Contains(out, "c.go") {
		t.Fatalf("expected c.go to be truncated, got:\n%s", out)
	}
}

func TestFormatDependencyTree(t *testing.T) {
	insights := []models.CodeInsight{
		{Path: "main.go", Dependencies: []models.Dependency{
			{Name: "fmt", Kind: models.DependencyKindImport, External: true},
			{Name: "internal/foo", Kind: models.DependencyKindImport, External: false},
		}},
		{Path: "empty.go"},
	}
	out := FormatDependencyTree(insights)
	if !strings.Contains(out, "main.go") || !strings.Contains(out, "fmt") || !strings.Contains(out, "external") || !strings.Contains(out, "internal") {
		t.Fatalf("got %q", out)
	}
	if strings.Contains(out, "empty.go") {
		t.Fatalf("file with no dependencies should be skipped, got:\n%s", out)
	}
}

func TestFormatDependencyTreeNoDependencies(t *testing.T) {
	out := FormatDependencyTree([]models.CodeInsight{{Path: "x.go"}})
	if !strings.Contains(out, "no dependencies recorded") {
		t.Fatalf("got %q", out)
	}
}

func TestFormatSchemaTable(t *testing.T) {
	out := FormatSchemaTable([]string{"Name", "Count"}, [][]string{{"a", "1"}, {"b", "2"}})
	if !strings.Contains(out, "| Name | Count |") || !strings.Contains(out, "| a | 1 |") {
		t.Fatalf("got %q", out)
	}
}

func TestFormatSchemaTableEmptyHeaders(t *testing.T) {
	out := FormatSchemaTable(nil, nil)
	if !strings.Contains(out, "empty table") {
		t.Fatalf("got %q", out)
	}
}

func TestFormatRelationshipAnalysis(t *testing.T) {
	ra := models.RelationshipAnalysis{
		Summary: "overview text",
		ModuleGroups: []models.ModuleGroup{
			{Name: "core", Files: []string{"a.go", "b.go"}, Description: "core logic"},
		},
		KeyDependencyChains: []string{"cmd -> core -> storage"},
	}
	out := FormatRelationshipAnalysis(ra)
	if !strings.Contains(out, "overview text") || !strings.Contains(out, "core") || !strings.Contains(out, "2 files") || !strings.Contains(out, "cmd -> core -> storage") {
		t.Fatalf("got %q", out)
	}
}

func TestFormatKnowledgeBlobPassthrough(t *testing.T) {
	if got := FormatKnowledgeBlob("raw text"); got != "raw text" {
		t.Fatalf("got %q", got)
	}
}
