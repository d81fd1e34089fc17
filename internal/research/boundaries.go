package research

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunBoundaries surfaces externally-facing files (entry points,
// controllers, routers, APIs, config) as integration boundaries,
// grounded on boundary_analyzer.rs.
func RunBoundaries(ctx context.Context, e *agent.Executor, insights []models.CodeInsight) (models.BoundaryReport, error) {
	filtered := filterByPurpose(insights, boundaryPurposes, 100)

	base := agent.Base{
		Name: AgentBoundaries,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", AgentSystemContext, true),
			agent.MemoryInput[preprocess.ProjectStructure]("PROJECT_STRUCTURE", memory.ScopePreprocess, preprocess.KeyProjectStructure, true),
			agent.MemoryInput[models.RelationshipAnalysis]("DEPENDENCY_ANALYSIS", memory.ScopePreprocess, preprocess.KeyRelationships, true),
			agent.StaticInput("BOUNDARY_CODE_INSIGHTS", agent.FormatCodeInsights(filtered, agent.FormatterConfig{MaxInsightsListed: 100}), false),
			agent.KnowledgeInput("EXTERNAL_DOCS", "api", false),
		},
		SystemPrompt: `You are a professional system boundary interface analyst, focused on identifying and analyzing external call boundaries of software systems.

Identify:
1. CLI - commands, parameters, options, usage examples
2. API - HTTP endpoints, request/response formats, authentication methods
3. Router - page/route paths, URL structure, route parameters
4. Integration suggestions - best practices and example code

Focus on Entry, Api, Controller, Config, Router type code. If a category has no boundaries, return an empty array for it rather than inventing one.`,
		OpeningSection: "Analyze the system's boundary interfaces based on the following boundary-related code and project information:",
		ClosingSection: `
## Analysis Requirements
- Extract specific boundary information from code structure and interface definitions
- Generate practical usage examples and integration suggestions
- If a boundary category does not exist, its array can be empty`,
		OutputScope: memory.ScopeResearch,
		OutputKey:   AgentBoundaries,
	}
	return agent.RunExtract[models.BoundaryReport](ctx, e, researchCacheCategory, base, nil)
}
