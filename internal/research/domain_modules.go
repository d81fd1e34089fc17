package research

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunDomainModules is Layer 2: top-down domain/module identification,
// grounded on domain_modules_detector.rs.
func RunDomainModules(ctx context.Context, e *agent.Executor) (models.DomainModulesReport, error) {
	base := agent.Base{
		Name: AgentDomainModules,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", AgentSystemContext, true),
			agent.MemoryInput[models.RelationshipAnalysis]("DEPENDENCY_ANALYSIS", memory.ScopePreprocess, preprocess.KeyRelationships, true),
			agent.MemoryInput[[]models.CodeInsight]("CODE_INSIGHTS", memory.ScopePreprocess, preprocess.KeyCodeInsights, true),
			agent.MemoryInput[preprocess.ProjectStructure]("PROJECT_STRUCTURE", memory.ScopePreprocess, preprocess.KeyProjectStructure, false),
			agent.KnowledgeInput("EXTERNAL_DOCS", "architecture", false),
		},
		SystemPrompt: `You are a professional software architecture analyst, specializing in identifying domain architecture and modules in projects based on the provided information and research materials.

Use a top-down analysis approach: identify domains first, then the modules within each domain.`,
		OpeningSection: "Based on the following research materials, conduct a high-level architecture analysis:",
		ClosingSection: `
## Analysis Requirements
- Domain division should reflect functional value, not technical implementation
- Maintain a reasonable level of abstraction, avoid excessive detail
- Focus on core business logic and key dependency relationships`,
		OutputScope: memory.ScopeResearch,
		OutputKey:   AgentDomainModules,
	}
	return agent.RunExtract[models.DomainModulesReport](ctx, e, researchCacheCategory, base, nil)
}
