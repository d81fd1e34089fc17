package research

import (
	"context"
	"regexp"
	"strings"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/models"
)

var mermaidBlockPattern = regexp.MustCompile("(?s)```mermaid\\n(.*?)```")

// RunArchitecture drives a WithTools ReAct loop letting the model
// explore the project tree directly before producing a free-form
// architecture write-up, grounded on architecture_researcher.rs (whose
// Output type is a raw string, unlike its Extract-mode siblings,
// because tool use and schema-constrained extraction aren't combined
// here). The body of the first mermaid fenced block found is copied into
// DiagramMermaid; Summary keeps the whole trimmed text, block included.
func RunArchitecture(ctx context.Context, e *agent.Executor, toolDefs []llmprovider.ToolDef, dispatch llmprovider.ToolDispatcher, maxIterations int) (models.ArchitectureReport, error) {
	base := agent.Base{
		Name: AgentArchitecture,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", AgentSystemContext, true),
			agent.ResearchInput[models.DomainModulesReport]("DOMAIN_MODULES", AgentDomainModules, true),
			agent.KnowledgeInput("EXTERNAL_DOCS", "architecture", false),
		},
		SystemPrompt: `You are a professional software architecture analyst. Analyze system architecture based on the research reports provided, and the project's own file tree via the available tools, then write the project's architecture research documentation.

If existing architecture or ADR documentation is available, validate code structure against it and note any drift.`,
		OpeningSection: "The following research reports are provided for analyzing the system architecture:",
		ClosingSection: `
## Analysis Requirements
- Draw the system architecture diagram based on the provided information and your own exploration
- Use a mermaid fenced code block to represent architecture relationships
- Highlight core components and interaction patterns`,
		OutputScope: memory.ScopeResearch,
		OutputKey:   AgentArchitecture,
	}

	loopCfg := llmprovider.ToolLoopConfig{Tools: toolDefs, Dispatch: dispatch, MaxIterations: maxIterations}
	result, err := e.RunWithTools(ctx, researchCacheCategory, base, loopCfg, nil)
	if err != nil {
		return models.ArchitectureReport{}, err
	}

	report := splitArchitectureText(result.FinalText)
	if err := e.Memory.Store(memory.ScopeResearch, AgentArchitecture, report); err != nil {
		return models.ArchitectureReport{}, err
	}
	return report, nil
}

func splitArchitectureText(text string) models.ArchitectureReport {
	diagram := ""
	if m := mermaidBlockPattern.FindStringSubmatch(text); m != nil {
		diagram = strings.TrimSpace(m[1])
	}
	return models.ArchitectureReport{
		Summary:        strings.TrimSpace(text),
		DiagramMermaid: diagram,
	}
}
