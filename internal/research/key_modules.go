package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/models"
)

// RunKeyModules fans out one Extract call per detected domain module,
// bounded by maxParallel, grounded on key_modules_insight.rs's
// do_parallel_with_limit fan-out (itself the same semaphore+WaitGroup
// shape as the teacher's orchestrator.go executeTasks, already reused
// in preprocess/insight.go). A domain's failure is logged and skipped;
// the stage only fails if every domain failed.
func RunKeyModules(ctx context.Context, e *agent.Executor, domains []models.DomainModule, insights []models.CodeInsight, maxParallel int, logger *log.Logger) ([]models.KeyModuleReport, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("research: key_modules: no domain module data found")
	}
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags)
	}

	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	reports := make([]models.KeyModuleReport, 0, len(domains))
	failures := 0

	for _, domain := range domains {
		domain := domain
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := analyzeDomain(ctx, e, domain, insights)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				logger.Printf("domain %q analysis failed: %v", domain.Name, err)
				return
			}
			reports = append(reports, report)
		}()
	}
	wg.Wait()

	if len(reports) == 0 {
		return nil, fmt.Errorf("research: key_modules: all %d domain analyses failed", failures)
	}

	if err := e.Memory.Store(memory.ScopeResearch, AgentKeyModules, reports); err != nil {
		return nil, fmt.Errorf("research: key_modules: store: %w", err)
	}
	return reports, nil
}

func analyzeDomain(ctx context.Context, e *agent.Executor, domain models.DomainModule, insights []models.CodeInsight) (models.KeyModuleReport, error) {
	filtered := filterByDomainPaths(domain, insights, 50)

	base := agent.Base{
		Name: AgentKeyModules + ":" + domain.Name,
		Inputs: []agent.Input{
			agent.StaticInput("DOMAIN_INFO", formatDomainInfo(domain), true),
			agent.StaticInput("RELATED_CODE_INSIGHTS", agent.FormatCodeInsights(filtered, agent.FormatterConfig{MaxInsightsListed: 50}), false),
		},
		SystemPrompt:   "Based on the information provided by the user, conduct in-depth and rigorous analysis of this domain's core module and provide results in the specified format.",
		OpeningSection: fmt.Sprintf("Analyze the core module technical details of the '%s' domain:", domain.Name),
		ClosingSection: "",
		OutputScope:    memory.ScopeResearch,
		OutputKey:      AgentKeyModules + ":" + domain.Name,
	}

	report, err := agent.RunExtract[models.KeyModuleReport](ctx, e, researchCacheCategory, base, nil)
	if err != nil {
		return models.KeyModuleReport{}, err
	}
	if report.Module == "" {
		report.Module = domain.Name
	}
	return report, nil
}

func filterByDomainPaths(domain models.DomainModule, insights []models.CodeInsight, limit int) []models.CodeInsight {
	if len(domain.Files) == 0 {
		return nil
	}
	out := make([]models.CodeInsight, 0, limit)
	for _, ci := range insights {
		p := strings.ReplaceAll(ci.Path, "\\", "/")
		for _, dp := range domain.Files {
			dp = strings.ReplaceAll(dp, "\\", "/")
			if strings.Contains(p, dp) || strings.Contains(dp, p) {
				out = append(out, ci)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}

func formatDomainInfo(domain models.DomainModule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Domain Name: %s\n", domain.Name)
	fmt.Fprintf(&b, "- Description: %s\n", domain.Description)
	if len(domain.Files) > 0 {
		fmt.Fprintf(&b, "- Code Paths: %s\n", strings.Join(domain.Files, ", "))
	}
	return b.String()
}
