package compose

import (
	"context"
	"fmt"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/internal/research"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunWorkflow is the third compose editor: a WithTools loop letting the
// model cross-check the workflow research report against the live file
// tree before writing up core workflows, grounded on workflow_editor.rs
// (LLMCallMode::PromptWithTools, unlike its Plain-mode overview/
// architecture siblings).
func RunWorkflow(ctx context.Context, e *agent.Executor, toolDefs []llmprovider.ToolDef, dispatch llmprovider.ToolDispatcher, maxIterations int) (string, error) {
	base := agent.Base{
		Name: SectionWorkflow,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", research.AgentSystemContext, true),
			agent.ResearchInput[models.DomainModulesReport]("DOMAIN_MODULES", research.AgentDomainModules, true),
			agent.ResearchInput[models.WorkflowReport]("WORKFLOW_RESEARCH", research.AgentWorkflows, true),
			agent.MemoryInput[[]models.CodeInsight]("CODE_INSIGHTS", memory.ScopePreprocess, preprocess.KeyCodeInsights, true),
			agent.KnowledgeInput("EXTERNAL_DOCS_WORKFLOW", "workflow", false),
			agent.KnowledgeInput("EXTERNAL_DOCS_ARCHITECTURE", "architecture", false),
		},
		SystemPrompt: `You are a professional software architecture documentation expert, focused on analyzing and writing system core workflow documentation. Your task is to write a complete workflow document titled "Core Workflows" based on the provided multi-dimensional research materials.

## External Knowledge Integration:
If documented business process flows are available, cross-reference code workflows against them and highlight any gaps between documented processes and the implementation.

## Workflow Documentation Standards:
Cover the main process overview, key process details, inter-module coordination, exception handling, and performance-relevant concurrency.`,
		OpeningSection: "Based on the following research materials, write a complete, in-depth core workflow document. Focus on execution order, dependencies, state transitions, and exception handling of the system's key processes:",
		ClosingSection: "\n## Output Requirements\n- Use Mermaid fenced code blocks for process and sequence diagrams\n- Cover main processes, coordination mechanisms, and exception handling\n- Use standard Markdown formatting with clear heading levels",
		OutputScope:      memory.ScopeDocumentation,
		OutputKey:        SectionWorkflow,
		IncludeTimestamp: true,
	}

	loopCfg := llmprovider.ToolLoopConfig{Tools: toolDefs, Dispatch: dispatch, MaxIterations: maxIterations}
	result, err := e.RunWithTools(ctx, composeCacheCategory, base, loopCfg, nil)
	if err != nil {
		return "", err
	}
	if err := e.Memory.Store(memory.ScopeDocumentation, SectionWorkflow, result.FinalText); err != nil {
		return "", fmt.Errorf("compose: workflow: store: %w", err)
	}
	return result.FinalText, nil
}
