package outlet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/memory"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// SummaryReport is the run-level report DiskOutlet's companion emits
// once the documentation itself has been written: per-stage timings,
// content volume by memory scope, and the response cache's hit-rate
// and estimated cost saving. summary_generator.rs/summary_outlet.rs
// (referenced by outlet/mod.rs as sibling modules) are not present in
// the retrieval pack, so this is grounded instead on outlet/mod.rs's
// own doc comments plus cache.Manager.Report's already-built
// "SummaryReport contribution" (see internal/cache/cache.go), which
// names the exact fields a summary needs to surface.
type SummaryReport struct {
	RunID          string
	TargetLanguage string
	OutputDir      string
	GeneratedAt    time.Time
	Timings        []StageTiming
	TotalDuration  time.Duration
	MemoryUsage    map[memory.Scope]int64
	CacheReport    []cache.CategoryReport
	AgentStatuses  []AgentStatus
}

// AgentStatus is one agent invocation's terminal status (spec §7): OK on
// success, or OK=false with the classifying error taxon on failure.
type AgentStatus struct {
	Name  string
	OK    bool
	Taxon string
	Error string
}

// TotalCostSaved sums CostSaved across every cache category.
func (r SummaryReport) TotalCostSaved() float64 {
	var total float64
	for _, c := range r.CacheReport {
		total += c.CostSaved
	}
	return total
}

// Render formats the report as a standalone Markdown document.
func (r SummaryReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Documentation Generation Summary\n\n")
	if r.RunID != "" {
		fmt.Fprintf(&b, "- Run ID: %s\n", r.RunID)
	}
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Target language: %s\n", r.TargetLanguage)
	fmt.Fprintf(&b, "- Output directory: %s\n\n", r.OutputDir)

	b.WriteString("## Stage Timings\n\n")
	b.WriteString("| Stage | Duration |\n|-------|----------|\n")
	for _, t := range r.Timings {
		fmt.Fprintf(&b, "| %s | %s |\n", t.Stage, t.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "| **Total** | **%s** |\n\n", r.TotalDuration.Round(time.Millisecond))

	b.WriteString("## Memory Usage by Scope\n\n")
	b.WriteString("| Scope | Bytes |\n|-------|-------|\n")
	scopes := make([]string, 0, len(r.MemoryUsage))
	for s := range r.MemoryUsage {
		scopes = append(scopes, string(s))
	}
	sort.Strings(scopes)
	for _, s := range scopes {
		fmt.Fprintf(&b, "| %s | %d |\n", s, r.MemoryUsage[memory.Scope(s)])
	}

	if len(r.CacheReport) > 0 {
		b.WriteString("\n## Response Cache\n\n")
		b.WriteString("| Category | Hits | Misses | Hit Rate | Est. Cost Saved |\n|----------|------|--------|----------|------------------|\n")
		for _, c := range r.CacheReport {
			fmt.Fprintf(&b, "| %s | %d | %d | %.1f%% | $%.4f |\n", c.Category, c.Hits, c.Misses, c.HitRate*100, c.CostSaved)
		}
		fmt.Fprintf(&b, "\n**Total estimated cost saved: $%.4f**\n", r.TotalCostSaved())
	}

	if len(r.AgentStatuses) > 0 {
		b.WriteString("\n## Agent Status\n\n")
		b.WriteString("| Agent | Status | Error Taxon |\n|-------|--------|-------------|\n")
		for _, a := range r.AgentStatuses {
			status := "ok"
			if !a.OK {
				status = "failed"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", a.Name, status, a.Taxon)
		}
	}
	return b.String()
}

// SummaryOutlet persists a SummaryReport as SUMMARY.md alongside the
// generated documentation tree.
type SummaryOutlet struct {
	OutputDir string
}

// NewSummaryOutlet constructs a SummaryOutlet targeting dir.
func NewSummaryOutlet(dir string) *SummaryOutlet {
	return &SummaryOutlet{OutputDir: dir}
}

// Save writes report to OutputDir/SUMMARY.md.
func (s *SummaryOutlet) Save(report SummaryReport) error {
	path := filepath.Join(s.OutputDir, "SUMMARY.md")
	if err := os.WriteFile(path, []byte(report.Render()), 0o644); err != nil {
		return fmt.Errorf("outlet: write summary: %w", err)
	}
	return nil
}
