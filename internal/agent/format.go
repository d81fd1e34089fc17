package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sopaco/deepwiki-rs/models"
)

// FormatterConfig knobs the rendering step of the agent lifecycle
// (spec §4.5 step 2). A zero value uses sensible defaults for every
// kind of structured input the agent runtime encounters.
type FormatterConfig struct {
	// MaxInsightsListed caps how many CodeInsight entries are rendered
	// before truncating with a "(+N more)" marker. 0 = no cap.
	MaxInsightsListed int
}

// FormatCodeInsights renders a hierarchical, purpose-grouped summary of
// a CodeInsight list: one heading per purpose, each file as a bullet
// with its importance score and responsibility summary.
func FormatCodeInsights(insights []models.CodeInsight, cfg FormatterConfig) string {
	if len(insights) == 0 {
		return "(no code insights available)"
	}

	byPurpose := map[models.Purpose][]models.CodeInsight{}
	for _, ci := range insights {
		byPurpose[ci.Purpose] = append(byPurpose[ci.Purpose], ci)
	}

	var purposes []string
	for p := range byPurpose {
		purposes = append(purposes, string(p))
	}
	sort.Strings(purposes)

	var b strings.Builder
	rendered := 0
	for _, p := range purposes {
		group := byPurpose[models.Purpose(p)]
		sort.Slice(group, func(i, j int) bool { return group[i].ImportanceScore > group[j].ImportanceScore })
		fmt.Fprintf(&b, "### %s\n", p)
		for _, ci := range group {
			if cfg.MaxInsightsListed > 0 && rendered >= cfg.MaxInsightsListed {
				fmt.Fprintf(&b, "- (+%d more files omitted)\n", len(insights)-rendered)
				return b.String()
			}
			summary := ci.ResponsibilitySummary
			if summary == "" {
				summary = "(no summary)"
			}
			fmt.Fprintf(&b, "- `%s` (importance %.2f): %s\n", ci.Path, ci.ImportanceScore, summary)
			rendered++
		}
	}
	return b.String()
}

// FormatDependencyTree renders a dependency list as an ordered bullet
// tree, grouping by the dependent file for readability.
func FormatDependencyTree(insights []models.CodeInsight) string {
	var b strings.Builder
	any := false
	for _, ci := range insights {
		if len(ci.Dependencies) == 0 {
			continue
		}
		any = true
		fmt.Fprintf(&b, "- `%s`\n", ci.Path)
		for _, dep := range ci.Dependencies {
			marker := "internal"
			if dep.External {
				marker = "external"
			}
			fmt.Fprintf(&b, "  - %s (%s, %s)\n", dep.Name, dep.Kind, marker)
		}
	}
	if !any {
		return "(no dependencies recorded)"
	}
	return b.String()
}

// FormatSchemaTable renders a list of named columns as a Markdown
// table — used for rendering tabular structured inputs such as a
// RelationshipAnalysis's module groups.
func FormatSchemaTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return "(empty table)"
	}
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(headers, " | "))
	b.WriteString(" |\n|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}

// FormatRelationshipAnalysis renders a RelationshipAnalysis as a module
// table plus a bullet list of key dependency chains.
func FormatRelationshipAnalysis(ra models.RelationshipAnalysis) string {
	var b strings.Builder
	b.WriteString(ra.Summary)
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(ra.ModuleGroups))
	for _, g := range ra.ModuleGroups {
		rows = append(rows, []string{g.Name, fmt.Sprintf("%d files", len(g.Files)), g.Description})
	}
	b.WriteString(FormatSchemaTable([]string{"Module", "Files", "Description"}, rows))

	if len(ra.KeyDependencyChains) > 0 {
		b.WriteString("\nKey dependency chains:\n")
		for _, chain := range ra.KeyDependencyChains {
			fmt.Fprintf(&b, "- %s\n", chain)
		}
	}
	return b.String()
}

// FormatKnowledgeBlob passes a knowledge-store text blob through
// unchanged — it is already formatted prose, not structured data.
func FormatKnowledgeBlob(blob string) string {
	return blob
}
