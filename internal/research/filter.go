package research

import "github.com/sopaco/deepwiki-rs/models"

// filterByPurpose keeps only the insights whose Purpose is in allowed,
// capped at limit (0 means unlimited). Grounded on
// key_modules_insight.rs's per-domain code-path filtering, generalized
// to a purpose-based filter for boundary_analyzer.rs's "Focus on Entry,
// Api, Controller, Config, Router type code".
func filterByPurpose(insights []models.CodeInsight, allowed map[string]bool, limit int) []models.CodeInsight {
	out := make([]models.CodeInsight, 0, len(insights))
	for _, ci := range insights {
		if !allowed[string(ci.Purpose)] {
			continue
		}
		out = append(out, ci)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
