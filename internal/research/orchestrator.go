package research

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/models"
)

// Memory keys the compose stage reads from, mirroring the agent names
// above one-to-one under memory.ScopeResearch.
const (
	KeySystemContext = AgentSystemContext
	KeyDomainModules = AgentDomainModules
	KeyArchitecture  = AgentArchitecture
	KeyWorkflows     = AgentWorkflows
	KeyKeyModules    = AgentKeyModules
	KeyBoundaries    = AgentBoundaries
	KeyDatabase      = AgentDatabase
)

// Orchestrator runs the seven research agents in topological layers:
// system_context, then domain_modules, then architecture and workflows
// concurrently (both depend only on the first two and not on each
// other), then key_modules' own per-domain fan-out, then boundaries,
// then the conditionally-triggered database agent. Grounded on
// orchestrator.rs's execute_research_pipeline for the dependency edges
// themselves, generalized to run independent layers concurrently using
// the same WaitGroup fan-out shape as key_modules.go.
type Orchestrator struct {
	executor      *agent.Executor
	toolDefs      []llmprovider.ToolDef
	dispatch      llmprovider.ToolDispatcher
	maxIterations int
	maxParallel   int
	dbExtensions  []string
	logger        *log.Logger
}

// New constructs an Orchestrator. toolDefs/dispatch back the
// architecture agent's WithTools loop (see internal/tools.Registry).
func New(executor *agent.Executor, toolDefs []llmprovider.ToolDef, dispatch llmprovider.ToolDispatcher, providerCfg config.ProviderConfig, dbExtensions []string) *Orchestrator {
	maxIterations := providerCfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}
	return &Orchestrator{
		executor:      executor,
		toolDefs:      toolDefs,
		dispatch:      dispatch,
		maxIterations: maxIterations,
		maxParallel:   providerCfg.NormalizedMaxParallels(),
		dbExtensions:  dbExtensions,
		logger:        log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags),
	}
}

// Run executes the DAG end to end. A failure in any agent that runs,
// the conditional database agent included, is fatal; key_modules only
// fails once every per-domain analysis has failed.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Printf("starting research pipeline")

	if _, err := RunSystemContext(ctx, o.executor); err != nil {
		return fmt.Errorf("research: system_context: %w", err)
	}

	domainReport, err := RunDomainModules(ctx, o.executor)
	if err != nil {
		return fmt.Errorf("research: domain_modules: %w", err)
	}

	var archErr, workflowsErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, archErr = RunArchitecture(ctx, o.executor, o.toolDefs, o.dispatch, o.maxIterations)
	}()
	go func() {
		defer wg.Done()
		_, workflowsErr = RunWorkflows(ctx, o.executor)
	}()
	wg.Wait()
	if archErr != nil {
		return fmt.Errorf("research: architecture: %w", archErr)
	}
	if workflowsErr != nil {
		return fmt.Errorf("research: workflows: %w", workflowsErr)
	}

	insights, _ := memory.Get[[]models.CodeInsight](o.executor.Memory, memory.ScopePreprocess, preprocess.KeyCodeInsights)

	if _, err := RunKeyModules(ctx, o.executor, domainReport.Modules, insights, o.maxParallel, o.logger); err != nil {
		return fmt.Errorf("research: key_modules: %w", err)
	}

	if _, err := RunBoundaries(ctx, o.executor, insights); err != nil {
		return fmt.Errorf("research: boundaries: %w", err)
	}

	files, _ := memory.Get[preprocess.ProjectStructure](o.executor.Memory, memory.ScopePreprocess, preprocess.KeyProjectStructure)
	if preprocess.HasDatabaseFiles(insights, files.Files, o.dbExtensions) {
		if _, err := RunDatabase(ctx, o.executor, insights); err != nil {
			return fmt.Errorf("research: database: %w", err)
		}
	} else {
		o.logger.Printf("no database files detected, skipping database agent")
	}

	o.logger.Printf("research pipeline completed")
	return nil
}
