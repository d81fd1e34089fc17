package research

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunWorkflows identifies the system's core functional workflows,
// grounded on workflow_researcher.rs.
func RunWorkflows(ctx context.Context, e *agent.Executor) (models.WorkflowReport, error) {
	base := agent.Base{
		Name: AgentWorkflows,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", AgentSystemContext, true),
			agent.ResearchInput[models.DomainModulesReport]("DOMAIN_MODULES", AgentDomainModules, true),
			agent.MemoryInput[[]models.CodeInsight]("CODE_INSIGHTS", memory.ScopePreprocess, preprocess.KeyCodeInsights, true),
			agent.KnowledgeInput("EXTERNAL_DOCS", "workflow", false),
		},
		SystemPrompt: `Analyze the project's core functional workflows, focusing on functional perspective rather than excessive technical detail.

When external documentation is provided, cross-reference code workflows against documented business processes and note any gaps.`,
		OpeningSection: "The following research reports are provided for analyzing the system's main workflows:",
		ClosingSection: "Analyze the system's core workflows based on the research materials.",
		OutputScope:    memory.ScopeResearch,
		OutputKey:      AgentWorkflows,
	}
	return agent.RunExtract[models.WorkflowReport](ctx, e, researchCacheCategory, base, nil)
}
