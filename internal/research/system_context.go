package research

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunSystemContext is Layer 1: the only research agent with no
// dependency on another agent's output, grounded on
// system_context_researcher.rs.
func RunSystemContext(ctx context.Context, e *agent.Executor) (models.SystemContextReport, error) {
	base := agent.Base{
		Name: AgentSystemContext,
		Inputs: []agent.Input{
			agent.MemoryInput[preprocess.ProjectStructure]("PROJECT_STRUCTURE", memory.ScopePreprocess, preprocess.KeyProjectStructure, true),
			agent.MemoryInput[[]models.CodeInsight]("CODE_INSIGHTS", memory.ScopePreprocess, preprocess.KeyCodeInsights, true),
			agent.MemoryInput[[]preprocess.OriginalDocument]("README_CONTENT", memory.ScopePreprocess, preprocess.KeyOriginalDocument, false),
			agent.KnowledgeInput("EXTERNAL_DOCS", "architecture", false),
		},
		SystemPrompt: `You are a professional software architecture analyst, specializing in project objective and system boundary analysis.

Analyze the project to determine:
1. Core objectives and business value
2. Project type and tech stack
3. Target users and use cases
4. External system dependencies
5. System boundaries (what's in/out of scope)

When external documentation is provided, cross-reference code against documented architecture and flag gaps between docs and implementation.

Required output style:
- Plain English, short sentences
- No filler phrases
- No repetition
- Concrete specifics over vague generalities`,
		OpeningSection: "Based on the following research materials, analyze the project's core objectives and system positioning:",
		ClosingSection: `
## Analysis Requirements
- Accurately identify project type and technical characteristics
- Clearly define target users and usage scenarios
- Clearly delineate system boundaries
- If external documentation is provided, validate code structure against it
- Ensure analysis results conform to the C4 architecture model's system context level`,
		OutputScope: memory.ScopeResearch,
		OutputKey:   AgentSystemContext,
	}
	return agent.RunExtract[models.SystemContextReport](ctx, e, researchCacheCategory, base, nil)
}
