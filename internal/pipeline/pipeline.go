package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/budget"
	"github.com/sopaco/deepwiki-rs/internal/cache"
	"github.com/sopaco/deepwiki-rs/internal/capability"
	"github.com/sopaco/deepwiki-rs/internal/compose"
	"github.com/sopaco/deepwiki-rs/internal/knowledge"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/outlet"
	"github.com/sopaco/deepwiki-rs/internal/preprocess"
	"github.com/sopaco/deepwiki-rs/internal/research"
	"github.com/sopaco/deepwiki-rs/internal/telemetry"
	"github.com/sopaco/deepwiki-rs/internal/tools"
)

// Stage-timing keys stored under memory.ScopeTiming, grounded on
// workflow.rs's TimingKeys constants.
const (
	TimingPreprocess         = "preprocess"
	TimingResearch           = "research"
	TimingCompose            = "compose"
	TimingOutput             = "output"
	TimingDocumentGeneration = "document_generation" // preprocess + research + compose
	TimingTotalExecution     = "total_execution"
)

// databaseExtensions is the conditional database-agent trigger's file
// extension fallback. The original config surface (config.go) has no
// dedicated field for this — research.New already takes it as a plain
// constructor parameter with no config-driven source — so the driver
// supplies this literal default, grounded on original_source's
// has_database_files() extension check ("sql", "sqlproj").
var databaseExtensions = []string{"sql", "sqlproj"}

// Driver sequences the full documentation pipeline end to end,
// grounded on generator/workflow.rs::launch: preprocess -> research ->
// compose -> persist, each stage timed into memory.ScopeTiming exactly
// like the original's TimingScope bookkeeping.
type Driver struct {
	cfg       *config.Config
	root      string
	mem       *memory.Memory
	runID     string
	logger    *log.Logger
	telemetry *telemetry.Recorder
	executor  *agent.Executor
	budgetMon *budget.Monitor

	budgetSeenCost   float64
	budgetSeenTokens int64
}

// New constructs a Driver for the project rooted at root. Each Driver
// is stamped with a fresh run ID (github.com/google/uuid, already a
// teacher dependency) surfaced in the run's SummaryReport so repeated
// runs over the same project can be told apart in logs and output. The
// telemetry recorder is always present (disabled recorders are cheap
// no-ops) so every stage and agent call is uniformly wrapped in a
// span/metric regardless of whether cfg.Telemetry.Enabled is set.
func New(cfg *config.Config, root string) *Driver {
	return &Driver{
		cfg:       cfg,
		root:      root,
		mem:       memory.New(),
		runID:     uuid.NewString(),
		logger:    log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
		telemetry: telemetry.NewRecorder(cfg.Telemetry.Enabled, telemetry.Tracer("deepwiki-rs-pipeline")),
	}
}

// Run executes the pipeline end to end and returns the run summary.
func (d *Driver) Run(ctx context.Context) (outlet.SummaryReport, error) {
	err := d.timeStage(ctx, TimingTotalExecution, func(ctx context.Context) error { return d.run(ctx) })
	return d.buildSummaryReport(), err
}

func (d *Driver) run(ctx context.Context) error {
	cacheMgr, err := cache.New(d.cfg.Cache)
	if err != nil {
		return fmt.Errorf("pipeline: cache: %w", err)
	}

	client, err := llmprovider.NewClient(d.cfg.Provider, cacheMgr)
	if err != nil {
		return fmt.Errorf("pipeline: llm client: %w", err)
	}
	compressor := agent.NewCompressor(d.cfg.Compression, client)

	var knowledgeStore *knowledge.Store
	if d.cfg.Knowledge.Enabled {
		knowledgeStore, err = knowledge.New(d.cfg.Knowledge)
		if err != nil {
			return fmt.Errorf("pipeline: knowledge store: %w", err)
		}
		if _, err := knowledgeStore.Sync(ctx); err != nil {
			return fmt.Errorf("pipeline: knowledge sync: %w", err)
		}
	}

	lang, ok := ParseTargetLanguage(d.cfg.Output.TargetLanguage)
	if !ok {
		d.logger.Printf("unknown target language %q, using default language (English)", d.cfg.Output.TargetLanguage)
	}

	executor := &agent.Executor{
		Memory:              d.mem,
		Knowledge:           knowledgeStore,
		Client:              client,
		Compressor:          compressor,
		LanguageInstruction: lang.PromptInstruction(),
		Telemetry:           d.telemetry,
		PriceTable:          d.cfg.Cache.ModelPriceTable,
	}
	d.executor = executor

	capReg, err := capability.NewRegistry(capability.DefaultToolCards(), d.cfg.Capability.SigningSecret, d.cfg.Capability.RequiredTools)
	if err != nil {
		return fmt.Errorf("pipeline: capability registry: %w", err)
	}
	registry := tools.NewRegistry(d.root, d.cfg.Preprocess.ExcludedDirs, capReg)

	d.budgetMon = budget.NewMonitor(budgetConfigFromCfg(d.cfg.Budget))

	return d.execute(ctx, executor, registry, lang, cacheMgr)
}

// budgetConfigFromCfg adapts config.BudgetConfig (the file-driven
// surface) to budget.Config (internal/budget's guardrail surface).
func budgetConfigFromCfg(cfg config.BudgetConfig) budget.Config {
	return budget.Config{
		MaxCost:           cfg.MaxEstimatedCostUSD,
		MaxTokens:         cfg.MaxEstimatedTokens,
		MaxTimeSeconds:    cfg.MaxTimeSeconds,
		ApprovalThreshold: cfg.ApprovalThreshold,
		RequireApproval:   cfg.RequireApproval,
	}
}

// execute runs preprocess -> research -> compose -> persist against an
// already-assembled executor/registry, split out from run so tests can
// drive it directly with a stub-backed executor instead of a live LLM
// client and cache.
func (d *Driver) execute(ctx context.Context, executor *agent.Executor, registry *tools.Registry, lang TargetLanguage, cacheMgr *cache.Manager) error {
	toolDefs := registry.Defs()
	dispatch := registry.Dispatch

	return d.timeStage(ctx, TimingDocumentGeneration, func(ctx context.Context) error {
		if err := d.timeStage(ctx, TimingPreprocess, func(ctx context.Context) error {
			stage := preprocess.New(d.cfg.Preprocess, d.root, d.mem, executor)
			return stage.Run(ctx, d.cfg.Provider.MaxParallels)
		}); err != nil {
			return fmt.Errorf("pipeline: preprocess: %w", err)
		}
		if err := d.enforceBudget(TimingPreprocess); err != nil {
			return err
		}

		if err := d.timeStage(ctx, TimingResearch, func(ctx context.Context) error {
			orch := research.New(executor, toolDefs, dispatch, d.cfg.Provider, databaseExtensions)
			return orch.Run(ctx)
		}); err != nil {
			return fmt.Errorf("pipeline: research: %w", err)
		}
		if err := d.enforceBudget(TimingResearch); err != nil {
			return err
		}

		tree := compose.NewDocTree()
		tree.Insert(compose.SectionOverview, lang.DocFilename("overview"))
		tree.Insert(compose.SectionArchitecture, lang.DocFilename("architecture"))
		tree.Insert(compose.SectionWorkflow, lang.DocFilename("workflow"))
		tree.Insert(compose.SectionBoundary, lang.DocFilename("boundary"))
		tree.Insert(compose.SectionDatabase, lang.DocFilename("database"))

		if err := d.timeStage(ctx, TimingCompose, func(ctx context.Context) error {
			orch := compose.New(executor, toolDefs, dispatch, d.cfg.Provider)
			return orch.Run(ctx, tree)
		}); err != nil {
			return fmt.Errorf("pipeline: compose: %w", err)
		}
		if err := d.enforceBudget(TimingCompose); err != nil {
			return err
		}

		outDir := d.cfg.Output.OutputDir
		if err := d.timeStage(ctx, TimingOutput, func(ctx context.Context) error {
			disk := outlet.NewDiskOutlet(outDir)
			if err := disk.Save(d.mem, tree); err != nil {
				return err
			}

			if err := outlet.NewMermaidFixer().FixDir(outDir); err != nil {
				d.logger.Printf("error occurred during mermaid diagram repair: %v", err)
			}
			return nil
		}); err != nil {
			return err
		}

		// The summary is written once the output stage has returned, so
		// that stage's own timing is already recorded and shows up in it.
		cacheReport := cacheMgr.Report()
		d.telemetry.RecordCacheReport(cacheReport)

		report := d.buildSummaryReport()
		report.TargetLanguage = lang.DisplayName()
		report.OutputDir = outDir
		report.CacheReport = cacheReport
		return outlet.NewSummaryOutlet(outDir).Save(report)
	})
}

func (d *Driver) buildSummaryReport() outlet.SummaryReport {
	timings, _ := memory.Get[map[string]int64](d.mem, memory.ScopeTiming, timingRegistryKey)
	report := outlet.SummaryReport{
		RunID:       d.runID,
		GeneratedAt: time.Now(),
		MemoryUsage: d.mem.UsageByScope(),
	}
	order := []string{TimingPreprocess, TimingResearch, TimingCompose, TimingOutput}
	for _, stage := range order {
		if ns, ok := timings[stage]; ok {
			report.Timings = append(report.Timings, outlet.StageTiming{Stage: stage, Duration: time.Duration(ns)})
		}
	}
	if ns, ok := timings[TimingTotalExecution]; ok {
		report.TotalDuration = time.Duration(ns)
	}
	if d.executor != nil {
		for _, o := range d.executor.Outcomes() {
			report.AgentStatuses = append(report.AgentStatuses, outlet.AgentStatus{
				Name: o.Name, OK: o.OK, Taxon: o.Taxon, Error: o.Error,
			})
		}
	}
	return report
}

const timingRegistryKey = "durations"

// timeStage runs fn under a telemetry span, recording its wall-clock
// duration into memory.ScopeTiming under key and into the telemetry
// recorder's stage metrics, and returns fn's error unchanged.
func (d *Driver) timeStage(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	spanCtx, span := d.telemetry.StartSpan(ctx, key)
	start := time.Now()
	err := fn(spanCtx)
	dur := time.Since(start)
	d.recordTiming(key, dur)
	d.telemetry.RecordStage(span, key, dur, err)
	return err
}

// enforceBudget checks the telemetry recorder's running cost/token
// totals and elapsed wall-clock time against d.budgetMon's configured
// guardrails after stage completes, aborting the run with a wrapped
// budget.ErrExceeded when a ceiling is breached. Only the cost/tokens
// accrued since the last check are fed to the monitor so repeated
// calls across stages don't double-count.
func (d *Driver) enforceBudget(stage string) error {
	if d.budgetMon == nil {
		return nil
	}
	summary := d.telemetry.CostSummary()
	deltaCost := summary.TotalCost - d.budgetSeenCost
	deltaTokens := summary.TotalTokens - d.budgetSeenTokens
	d.budgetSeenCost = summary.TotalCost
	d.budgetSeenTokens = summary.TotalTokens

	if err := d.budgetMon.Add(deltaCost, deltaTokens); err != nil {
		return fmt.Errorf("pipeline: budget exceeded after %s: %w", stage, err)
	}
	if err := d.budgetMon.CheckTime(); err != nil {
		return fmt.Errorf("pipeline: budget exceeded after %s: %w", stage, err)
	}
	cfg := d.budgetMon.Config()
	if budget.RequiresApproval(cfg, summary.TotalCost) {
		d.logger.Printf("run cost $%.4f after %s crosses the configured approval threshold; no interactive approval channel exists, continuing", summary.TotalCost, stage)
	}
	return nil
}

func (d *Driver) recordTiming(key string, dur time.Duration) {
	timings, _ := memory.Get[map[string]int64](d.mem, memory.ScopeTiming, timingRegistryKey)
	if timings == nil {
		timings = make(map[string]int64)
	}
	timings[key] = int64(dur)
	_ = d.mem.Store(memory.ScopeTiming, timingRegistryKey, timings)
}
