package outlet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sopaco/deepwiki-rs/internal/cache"
)

func TestSummaryReportRenderIncludesTimingsAndCache(t *testing.T) {
	report := SummaryReport{
		TargetLanguage: "English",
		OutputDir:      "/tmp/out",
		GeneratedAt:    time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC),
		Timings: []StageTiming{
			{Stage: "preprocess", Duration: 2 * time.Second},
			{Stage: "research", Duration: 10 * time.Second},
		},
		TotalDuration: 12 * time.Second,
		CacheReport: []cache.CategoryReport{
			{Category: "research", Hits: 4, Misses: 1, HitRate: 0.8, CostSaved: 0.125},
		},
	}

	rendered := report.Render()
	if !strings.Contains(rendered, "preprocess") || !strings.Contains(rendered, "research") {
		t.Fatalf("expected stage names in output, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "$0.1250") {
		t.Fatalf("expected per-category cost saved, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "Total estimated cost saved: $0.1250") {
		t.Fatalf("expected total cost saved line, got:\n%s", rendered)
	}
}

func TestSummaryOutletSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	out := NewSummaryOutlet(dir)
	report := SummaryReport{TargetLanguage: "English", OutputDir: dir, GeneratedAt: time.Now()}
	if err := out.Save(report); err != nil {
		t.Fatalf("Save: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "SUMMARY.md"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(content), "Documentation Generation Summary") {
		t.Fatalf("unexpected summary content: %q", content)
	}
}
