package compose

import (
	"fmt"
	"strings"

	"github.com/sopaco/deepwiki-rs/models"
)

// RunBoundary is the fifth compose editor: it renders the boundaries
// research report directly to Markdown with no LLM call, grounded on
// boundary_editor.rs's "Custom execute implementation that generates
// documentation directly without using LLM". Simplified to this
// repo's flatter BoundaryReport shape (one table of path/purpose/
// description rather than boundary_editor.rs's separate CLI/API/
// Router/integration-suggestion sections and confidence score — see
// the models.go simplification note in DESIGN.md's C7 entry).
func RunBoundary(report models.BoundaryReport) string {
	var b strings.Builder
	b.WriteString("# Boundary Interfaces\n\n")
	b.WriteString("This document describes the system's external invocation interfaces: entry points, controllers, routers, APIs, and configuration surfaces.\n\n")

	if len(report.Interfaces) == 0 {
		b.WriteString("No boundary interfaces were detected in this project.\n")
		return b.String()
	}

	b.WriteString("| Path | Purpose | Description |\n")
	b.WriteString("|------|---------|-------------|\n")
	for _, iface := range report.Interfaces {
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", iface.Path, iface.Purpose, iface.Description)
	}
	return b.String()
}
