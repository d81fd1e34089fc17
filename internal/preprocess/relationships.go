package preprocess

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/models"
)

// relationshipsCacheCategory groups the aggregate relationship-analysis
// call (step 5). This call is compressor-gated like every other agent
// invocation, but unlike per-file analysis its failure is fatal to the
// stage (spec §4.6).
const relationshipsCacheCategory = "preprocess"

// BuildRelationships aggregates the full CodeInsight set into a
// project-level RelationshipAnalysis via a single LLM extraction call.
func BuildRelationships(ctx context.Context, executor *agent.Executor, insights []models.CodeInsight) (models.RelationshipAnalysis, error) {
	base := agent.Base{
		Name: "relationship_analyzer",
		OpeningSection: "Analyze the module structure of a software project from its per-file insights below. " +
			"Identify cohesive module groups (by directory or responsibility) and the key dependency chains between them.",
		ClosingSection: "Summarize the overall architecture in two to four sentences, then list module groups and key dependency chains.",
		Inputs: []agent.Input{
			agent.StaticInput("CODE_INSIGHTS", agent.FormatCodeInsights(insights, agent.FormatterConfig{MaxInsightsListed: 200}), true),
			agent.StaticInput("DEPENDENCY_TREE", agent.FormatDependencyTree(insights), false),
		},
		OutputScope: "PREPROCESS",
		OutputKey:   "relationships",
	}
	return agent.RunExtract[models.RelationshipAnalysis](ctx, executor, relationshipsCacheCategory, base, nil)
}
