package compose

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/research"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunKeyModules is the fourth compose editor: one WithTools editor per
// key-module research report, fanned out with the same bounded
// semaphore discipline as research.RunKeyModules, grounded on
// key_modules_insight_editor.rs's do_parallel_with_limit fan-out. Each
// editor's Markdown is stored under ScopeDocumentation keyed by
// "key_modules:<module>" and registered into tree so the pipeline
// driver knows where to write it. A domain's failure is logged and
// skipped; the stage only fails if every domain failed.
func RunKeyModules(ctx context.Context, e *agent.Executor, reports []models.KeyModuleReport, toolDefs []llmprovider.ToolDef, dispatch llmprovider.ToolDispatcher, maxIterations, maxParallel int, tree *DocTree, logger *log.Logger) error {
	if len(reports) == 0 {
		return nil
	}
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[COMPOSE] ", log.LstdFlags)
	}

	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0

	for _, report := range reports {
		report := report
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			content, err := editKeyModule(ctx, e, report, toolDefs, dispatch, maxIterations)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				logger.Printf("key_modules editor for module %q failed: %v", report.Module, err)
				return
			}
			key := SectionKeyModules + ":" + report.Module
			if err := e.Memory.Store(memory.ScopeDocumentation, key, content); err != nil {
				failures++
				logger.Printf("key_modules editor for module %q: store: %v", report.Module, err)
				return
			}
			tree.Insert(key, fmt.Sprintf("deep_exploration/%s.md", report.Module))
		}()
	}
	wg.Wait()

	if failures == len(reports) {
		return fmt.Errorf("compose: key_modules: all %d editors failed", failures)
	}
	return nil
}

func editKeyModule(ctx context.Context, e *agent.Executor, report models.KeyModuleReport, toolDefs []llmprovider.ToolDef, dispatch llmprovider.ToolDispatcher, maxIterations int) (string, error) {
	name := SectionKeyModules + ":" + report.Module
	base := agent.Base{
		Name: name,
		Inputs: []agent.Input{
			agent.ResearchInput[models.SystemContextReport]("SYSTEM_CONTEXT", research.AgentSystemContext, true),
			agent.ResearchInput[models.DomainModulesReport]("DOMAIN_MODULES", research.AgentDomainModules, true),
			agent.ResearchInput[models.ArchitectureReport]("ARCHITECTURE_RESEARCH", research.AgentArchitecture, true),
			agent.ResearchInput[models.WorkflowReport]("WORKFLOW_RESEARCH", research.AgentWorkflows, true),
			agent.StaticInput("MODULE_INSIGHT", formatModuleInsight(report), true),
			agent.KnowledgeInput("EXTERNAL_DOCS_ARCHITECTURE", "architecture", false),
			agent.KnowledgeInput("EXTERNAL_DOCS_DATABASE", "database", false),
		},
		SystemPrompt:   "You are a software expert skilled at writing technical documentation. Based on the research materials and requirements provided by the user, write technical documentation for the corresponding module's technical implementation in the existing project.",
		OpeningSection: fmt.Sprintf("The topic you need to analyze is: %s\n\n## Documentation Quality Requirements:\n1. Completeness: cover all important aspects of the %q module without omitting key information\n2. Accuracy: ensure technical details match the research materials\n3. Professionalism: use standard architecture terminology\n4. Readability: clear structure, easy to understand\n5. Practicality: provide valuable module knowledge and implementation detail", report.Module, report.Module),
		ClosingSection:   "",
		OutputScope:      memory.ScopeDocumentation,
		OutputKey:        name,
		IncludeTimestamp: true,
	}

	loopCfg := llmprovider.ToolLoopConfig{Tools: toolDefs, Dispatch: dispatch, MaxIterations: maxIterations}
	result, err := e.RunWithTools(ctx, composeCacheCategory, base, loopCfg, nil)
	if err != nil {
		return "", err
	}
	return result.FinalText, nil
}

func formatModuleInsight(report models.KeyModuleReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Module: %s\n", report.Module)
	fmt.Fprintf(&b, "- Summary: %s\n", report.Summary)
	if len(report.KeyFiles) > 0 {
		fmt.Fprintf(&b, "- Key Files: %s\n", strings.Join(report.KeyFiles, ", "))
	}
	if len(report.Responsibilities) > 0 {
		fmt.Fprintf(&b, "- Responsibilities: %s\n", strings.Join(report.Responsibilities, ", "))
	}
	return b.String()
}
