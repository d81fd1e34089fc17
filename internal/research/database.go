package research

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

// databasePurposes filters CODE_INSIGHTS to the files a database
// overview analysis actually needs.
var databasePurposes = map[string]bool{"database": true, "schema": true}

// RunDatabase produces a database overview, but only when the
// orchestrator's conditional trigger (preprocess.HasDatabaseFiles, per
// spec §4.7) fires. Grounded on database_overview_analyzer.rs.
func RunDatabase(ctx context.Context, e *agent.Executor, insights []models.CodeInsight) (models.DatabaseReport, error) {
	filtered := filterByPurpose(insights, databasePurposes, 100)

	base := agent.Base{
		Name: AgentDatabase,
		Inputs: []agent.Input{
			agent.MemoryInput[preprocess.ProjectStructure]("PROJECT_STRUCTURE", memory.ScopePreprocess, preprocess.KeyProjectStructure, true),
			agent.StaticInput("DATABASE_CODE_INSIGHTS", agent.FormatCodeInsights(filtered, agent.FormatterConfig{MaxInsightsListed: 100}), true),
			agent.KnowledgeInput("EXTERNAL_DOCS", "database", false),
		},
		SystemPrompt: `You are a professional database architect and SQL analyst. Analyze the provided database-related code insights and produce a database overview covering tables, their columns, and their purpose.

If a table's structure can't be determined from the provided material, omit it rather than guessing at columns.`,
		OpeningSection: "Analyze the project's database schema based on the following database-related code:",
		ClosingSection: "Summarize the database's role in the system and list each identified table.",
		OutputScope:    memory.ScopeResearch,
		OutputKey:      AgentDatabase,
	}
	return agent.RunExtract[models.DatabaseReport](ctx, e, researchCacheCategory, base, nil)
}
