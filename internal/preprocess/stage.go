package preprocess

import (
	"context"
	"fmt"
	"log"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/models"
)

// Memory keys written under the PREPROCESS scope, per spec §4.6.
const (
	KeyOriginalDocument = "original_document"
	KeyProjectStructure = "project_structure"
	KeyCodeInsights     = "code_insights"
	KeyRelationships    = "relationships"
)

// Stage is the imperative six-step Preprocess driver (C6). It owns no
// concurrency beyond InsightBuilder's bounded fan-out: every step runs
// to completion before the next begins.
type Stage struct {
	cfg      config.PreprocessConfig
	root     string
	mem      *memory.Memory
	executor *agent.Executor
	analyzer StaticAnalyzer
	logger   *log.Logger
}

// New constructs a Stage. executor is used for purpose-classification
// fallback, per-file responsibility summaries, and the aggregate
// relationship analysis; it must not be nil since step 5 is fatal
// without it.
func New(cfg config.PreprocessConfig, root string, mem *memory.Memory, executor *agent.Executor) *Stage {
	return &Stage{
		cfg:      cfg,
		root:     root,
		mem:      mem,
		executor: executor,
		analyzer: NewHeuristicAnalyzer(),
		logger:   log.New(log.Writer(), "[PREPROCESS] ", log.LstdFlags),
	}
}

// Run executes the six-step driver in order, publishing to the
// PREPROCESS scope as it goes.
func (s *Stage) Run(ctx context.Context, providerMaxParallels int) error {
	// Step 1: original documents.
	docs, err := ExtractOriginalDocuments(s.root)
	if err != nil {
		return fmt.Errorf("preprocess: extract original documents: %w", err)
	}
	if err := s.mem.Store(memory.ScopePreprocess, KeyOriginalDocument, docs); err != nil {
		return fmt.Errorf("preprocess: store original documents: %w", err)
	}

	// Step 2: project traversal and importance scoring.
	structure, err := NewTraverser(s.cfg).Traverse(s.root)
	if err != nil {
		return fmt.Errorf("preprocess: traverse project: %w", err)
	}

	// Step 3: mark core files and resolve purpose.
	threshold := s.cfg.ImportanceThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	for i := range structure.Files {
		structure.Files[i].IsCore = structure.Files[i].ImportanceScore >= threshold
	}
	if err := s.mem.Store(memory.ScopePreprocess, KeyProjectStructure, structure); err != nil {
		return fmt.Errorf("preprocess: store project structure: %w", err)
	}

	classifier := NewClassifier(s.executor, s.cfg.AIConfidenceThreshold)

	// Step 4: bounded-parallel per-file CodeInsight analysis.
	maxParallel := s.cfg.NormalizedMaxParallels(providerMaxParallels)
	builder := NewInsightBuilder(s.root, s.analyzer, classifier, s.executor, maxParallel)
	insights := builder.Build(ctx, structure.Files)
	if err := s.mem.Store(memory.ScopePreprocess, KeyCodeInsights, insights); err != nil {
		return fmt.Errorf("preprocess: store code insights: %w", err)
	}

	// Step 5: aggregate relationship analysis. Fatal on failure.
	relationships, err := BuildRelationships(ctx, s.executor, insights)
	if err != nil {
		return fmt.Errorf("preprocess: build relationships: %w", err)
	}
	if err := s.mem.Store(memory.ScopePreprocess, KeyRelationships, relationships); err != nil {
		return fmt.Errorf("preprocess: store relationships: %w", err)
	}

	s.logger.Printf("analyzed %d files (%d core) across %d directories", structure.TotalFiles, countCore(structure.Files), structure.TotalDirectories)
	return nil
}

func countCore(files []FileInfo) int {
	n := 0
	for _, f := range files {
		if f.IsCore {
			n++
		}
	}
	return n
}

// HasDatabaseFiles reports whether any stored CodeInsight has purpose
// Database, or the project contains a file with one of extensions. Used
// by the research orchestrator's conditional `database` agent trigger
// (spec §4.7).
func HasDatabaseFiles(insights []models.CodeInsight, files []FileInfo, extensions []string) bool {
	for _, ci := range insights {
		if ci.Purpose == models.PurposeDatabase {
			return true
		}
	}
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}
	for _, f := range files {
		if extSet[f.Extension] {
			return true
		}
	}
	return false
}
