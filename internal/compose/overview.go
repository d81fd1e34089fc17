package compose

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/internal/research"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunOverview is the first compose editor: a Plain-mode writeup of the
// project's C4 system-context overview, grounded on overview_editor.rs.
func RunOverview(ctx context.Context, e *agent.Executor) (string, error) {
	base := agent.Base{
		Name: SectionOverview,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", research.AgentSystemContext, true),
			agent.ResearchInput[models.DomainModulesReport]("DOMAIN_MODULES", research.AgentDomainModules, true),
			agent.MemoryInput[[]preprocess.OriginalDocument]("README_CONTENT", memory.ScopePreprocess, preprocess.KeyOriginalDocument, false),
			agent.KnowledgeInput("EXTERNAL_DOCS_ARCHITECTURE", "architecture", false),
			agent.KnowledgeInput("EXTERNAL_DOCS_ADR", "adr", false),
		},
		SystemPrompt: `You are a professional software architecture documentation expert, focused on generating clear, accurate system overview documentation. Your task is to write a system context overview document titled "System Context Overview" based on the provided research reports.

## External Knowledge Integration:
You may have access to existing product description, requirements and architecture documentation from external sources.
If available:
- Cross-reference the system's stated purpose against documented product requirements
- Validate actor and external-system lists against documented integrations
- Highlight any drift between documented scope and observed code

## Documentation Requirements
1. Accurately describe the project's core objectives and business value
2. Clearly identify target users and use scenarios
3. Clearly delineate system boundaries and external dependencies
4. Maintain a professional, readable tone throughout`,
		OpeningSection: "Based on the following research materials, write a comprehensive system context overview:",
		ClosingSection: "\n## Recommended Document Structure\n```\n# System Context Overview\n\n## 1. Project Purpose\n## 2. Target Users and Use Cases\n## 3. External Systems and Dependencies\n## 4. System Boundaries\n```\n\nUse standard Markdown formatting with clear heading levels.",
		OutputScope:      memory.ScopeDocumentation,
		OutputKey:        SectionOverview,
		IncludeTimestamp: true,
	}
	return e.RunPlain(ctx, composeCacheCategory, base, nil)
}
