package compose

import (
	"fmt"
	"strings"

	"github.com/sopaco/deepwiki-rs/models"
)

// RunDatabase is the sixth, conditional compose editor: it renders the
// database research report directly to Markdown with no LLM call,
// grounded on database_editor.rs. present mirrors the orchestrator's
// has_database_files gate: when false, a placeholder section is
// emitted instead (matching database_editor.rs's "No database
// components were detected" fallback). Simplified to this repo's
// flatter DatabaseReport shape (summary + table/column list, no
// views/procedures/functions/relationships/data-flows — see the
// models.go simplification note in DESIGN.md's C7 entry).
func RunDatabase(report models.DatabaseReport, present bool) string {
	if !present {
		return "## Database Overview\n\nNo database components were detected in this project.\n"
	}

	var b strings.Builder
	b.WriteString("## Database Overview\n\n")
	if report.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", report.Summary)
	}
	fmt.Fprintf(&b, "| Metric | Count |\n|--------|-------|\n| Tables | %d |\n\n", len(report.Tables))

	if len(report.Tables) > 0 {
		b.WriteString("### Tables\n\n")
		for _, t := range report.Tables {
			fmt.Fprintf(&b, "#### %s\n\n", t.Name)
			if t.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", t.Description)
			}
			if len(t.Columns) > 0 {
				fmt.Fprintf(&b, "**Columns:** %s\n\n", strings.Join(t.Columns, ", "))
			}
		}
	}
	return b.String()
}
