package compose

import (
	"context"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/research"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunArchitecture is the second compose editor: a Plain-mode C4
// container-level architecture document synthesized from every
// research report produced so far, grounded on architecture_editor.rs.
func RunArchitecture(ctx context.Context, e *agent.Executor) (string, error) {
	base := agent.Base{
		Name: SectionArchitecture,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", research.AgentSystemContext, true),
			agent.ResearchInput[models.DomainModulesReport]("DOMAIN_MODULES", research.AgentDomainModules, true),
			agent.ResearchInput[models.ArchitectureReport]("ARCHITECTURE_RESEARCH", research.AgentArchitecture, true),
			agent.ResearchInput[models.WorkflowReport]("WORKFLOW_RESEARCH", research.AgentWorkflows, true),
			agent.KnowledgeInput("EXTERNAL_DOCS_ARCHITECTURE", "architecture", false),
			agent.KnowledgeInput("EXTERNAL_DOCS_DEPLOYMENT", "deployment", false),
			agent.KnowledgeInput("EXTERNAL_DOCS_DATABASE", "database", false),
			agent.KnowledgeInput("EXTERNAL_DOCS_ADR", "adr", false),
		},
		SystemPrompt: `You are a professional software architecture documentation expert, focused on generating complete, in-depth C4 architecture model documentation. Your task is to write an architecture document titled "Architecture Overview" based on the provided research reports.

## External Knowledge Integration:
You may have access to existing product description, requirements and architecture documentation from external sources.
If available:
- Incorporate established architectural principles and design decisions
- Cross-reference implementation findings with documented architecture
- Highlight any architectural drift or gaps between documentation and code
- Reference documented ADRs when relevant

## C4 Architecture Documentation Standards:
Generate complete architecture documentation conforming to the C4 model Container level, covering:
- Architecture overview, design philosophy, and technology stack
- Container view: domain module division, inter-module communication
- Component view: core components and responsibility division
- Key processes and data flow
- Deployment view: runtime environment and scalability`,
		OpeningSection: "Based on the following research materials, write a complete, in-depth C4 architecture document. Carefully analyze every provided research report and extract key architectural information:",
		ClosingSection: "\n## Output Requirements\n- Use Mermaid fenced code blocks for every architecture and process diagram\n- Cover system context, container view, component view, key processes, and deployment\n- Use standard Markdown formatting with clear heading levels",
		OutputScope:      memory.ScopeDocumentation,
		OutputKey:        SectionArchitecture,
		IncludeTimestamp: true,
	}
	return e.RunPlain(ctx, composeCacheCategory, base, nil)
}
