package preprocess

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/models"
)

type responsibilitySummary struct {
	Summary string `json:"summary"`
}

// insightCacheCategory groups the per-file LLM enrichment calls.
const insightCacheCategory = "preprocess"

// InsightBuilder produces a CodeInsight per core file: static analysis
// from the StaticAnalyzer collaborator, purpose from the Classifier,
// and a one-sentence responsibility summary from a small LLM call.
// Bounded-parallel fan-out mirrors the semaphore+WaitGroup shape of
// the teacher's internal/agent/core/orchestrator.go executeTasks.
type InsightBuilder struct {
	root        string
	analyzer    StaticAnalyzer
	classifier  *Classifier
	executor    *agent.Executor
	maxParallel int
	logger      *log.Logger
}

// NewInsightBuilder constructs an InsightBuilder. executor may be nil,
// in which case every file's ResponsibilitySummary is left empty.
func NewInsightBuilder(root string, analyzer StaticAnalyzer, classifier *Classifier, executor *agent.Executor, maxParallel int) *InsightBuilder {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &InsightBuilder{
		root:        root,
		analyzer:    analyzer,
		classifier:  classifier,
		executor:    executor,
		maxParallel: maxParallel,
		logger:      log.New(log.Writer(), "[PREPROCESS] ", log.LstdFlags),
	}
}

// Build runs analysis across every core file, bounded to maxParallel
// concurrent analyses. Per-file failures are logged and the file is
// skipped; once ctx is cancelled, files still waiting for a slot are
// skipped too, and the insights gathered so far are returned.
func (b *InsightBuilder) Build(ctx context.Context, files []FileInfo) []models.CodeInsight {
	sem := make(chan struct{}, b.maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var insights []models.CodeInsight

	for _, f := range files {
		if !f.IsCore {
			continue
		}
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			insight, err := b.analyzeOne(ctx, f)
			if err != nil {
				b.logger.Printf("skipping %s: %v", f.Path, err)
				return
			}
			mu.Lock()
			insights = append(insights, insight)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return insights
}

func (b *InsightBuilder) analyzeOne(ctx context.Context, f FileInfo) (models.CodeInsight, error) {
	content, err := os.ReadFile(filepath.Join(b.root, f.Path))
	if err != nil {
		return models.CodeInsight{}, err
	}

	analysis, err := b.analyzer.Analyze(ctx, f.Path, content)
	if err != nil {
		return models.CodeInsight{}, err
	}

	snippet := content
	if len(snippet) > 2000 {
		snippet = snippet[:2000]
	}
	purpose, confidence := b.classifier.Classify(ctx, f.Path, f.Name, string(snippet))

	insight := models.CodeInsight{
		Path:              f.Path,
		ImportanceScore:   f.ImportanceScore,
		Purpose:           purpose,
		PurposeConfidence: confidence,
		Interfaces:        analysis.Interfaces,
		Dependencies:      analysis.Dependencies,
		Complexity:        analysis.Complexity,
	}

	if b.executor != nil {
		if summary, err := b.summarize(ctx, f, string(snippet)); err == nil {
			insight.ResponsibilitySummary = summary
		}
	}
	return insight, nil
}

func (b *InsightBuilder) summarize(ctx context.Context, f FileInfo, snippet string) (string, error) {
	base := agent.Base{
		Name:           "code_insight_summarizer",
		OpeningSection: "In one sentence, state the responsibility of this source file within the project.",
		ClosingSection: "Respond with only the summary sentence.",
		Inputs: []agent.Input{
			agent.StaticInput("FILE_PATH", f.Path, true),
			agent.StaticInput("FILE_SNIPPET", snippet, false),
		},
		OutputScope: "PREPROCESS",
		OutputKey:   "code_insight_summarizer_scratch",
	}
	result, err := agent.RunExtract[responsibilitySummary](ctx, b.executor, insightCacheCategory, base, nil)
	if err != nil {
		return "", err
	}
	return result.Summary, nil
}
