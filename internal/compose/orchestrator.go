package compose

import (
	"context"
	"fmt"
	"log"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/research"
	"github.com/sopaco/deepwiki-rs/models"
)

// Orchestrator runs the six compose editors in dependency order,
// grounded on compose/mod.rs's DocumentationComposer::execute: overview
// -> architecture -> workflow -> key_modules (fan-out, populates the
// doc tree) -> boundary -> conditional database, the last gated by
// whether the research stage actually produced a database report.
type Orchestrator struct {
	executor      *agent.Executor
	toolDefs      []llmprovider.ToolDef
	dispatch      llmprovider.ToolDispatcher
	maxIterations int
	maxParallel   int
	logger        *log.Logger
}

// New constructs an Orchestrator. toolDefs/dispatch back the workflow
// and key_modules editors' WithTools loops (see internal/tools.Registry),
// the same registry the research stage's architecture agent uses.
func New(executor *agent.Executor, toolDefs []llmprovider.ToolDef, dispatch llmprovider.ToolDispatcher, providerCfg config.ProviderConfig) *Orchestrator {
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
		logger:        log.New(log.Writer(), "[COMPOSE] ", log.LstdFlags),
	}
}

// Run executes the editor sequence against a caller-supplied DocTree,
// mirroring compose/mod.rs's execute(&context, &mut doc_tree) — the
// pipeline driver (C9) owns DocTree construction (pre-seeding the fixed
// section filenames via its locale helper) and passes it in by
// reference; Run only adds the dynamic per-module key_modules entries.
func (o *Orchestrator) Run(ctx context.Context, tree *DocTree) error {
	o.logger.Printf("starting compose pipeline")

	if _, err := RunOverview(ctx, o.executor); err != nil {
		return fmt.Errorf("compose: overview: %w", err)
	}

	if _, err := RunArchitecture(ctx, o.executor); err != nil {
		return fmt.Errorf("compose: architecture: %w", err)
	}

	if _, err := RunWorkflow(ctx, o.executor, o.toolDefs, o.dispatch, o.maxIterations); err != nil {
		return fmt.Errorf("compose: workflow: %w", err)
	}

	keyModuleReports, _ := memory.Get[[]models.KeyModuleReport](o.executor.Memory, memory.ScopeResearch, research.AgentKeyModules)
	if err := RunKeyModules(ctx, o.executor, keyModuleReports, o.toolDefs, o.dispatch, o.maxIterations, o.maxParallel, tree, o.logger); err != nil {
		return fmt.Errorf("compose: key_modules: %w", err)
	}

	boundaryReport, _ := memory.Get[models.BoundaryReport](o.executor.Memory, memory.ScopeResearch, research.AgentBoundaries)
	boundaryContent := RunBoundary(boundaryReport)
	if err := o.executor.Memory.Store(memory.ScopeDocumentation, SectionBoundary, boundaryContent); err != nil {
		return fmt.Errorf("compose: boundary: store: %w", err)
	}

	databaseReport, dbPresent := memory.Get[models.DatabaseReport](o.executor.Memory, memory.ScopeResearch, research.AgentDatabase)
	databaseContent := RunDatabase(databaseReport, dbPresent)
	if err := o.executor.Memory.Store(memory.ScopeDocumentation, SectionDatabase, databaseContent); err != nil {
		return fmt.Errorf("compose: database: store: %w", err)
	}

	o.logger.Printf("compose pipeline completed")
	return nil
}
