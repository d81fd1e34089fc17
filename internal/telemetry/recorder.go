package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sopaco/deepwiki-rs/internal/cache"
)

var (
	stageRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deepwiki_stage_runs_total",
		Help: "Pipeline stage completions, labeled by stage and outcome.",
	}, []string{"stage", "status"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deepwiki_stage_duration_seconds",
		Help:    "Pipeline stage wall-clock duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	agentRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deepwiki_agent_runs_total",
		Help: "Research/preprocess agent completions, labeled by agent type and outcome.",
	}, []string{"agent", "status"})

	agentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deepwiki_agent_duration_seconds",
		Help:    "Agent call wall-clock duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"agent"})

	llmTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deepwiki_llm_tokens_total",
		Help: "LLM tokens consumed, labeled by model.",
	}, []string{"model"})

	cacheHitRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "deepwiki_cache_hit_rate",
		Help: "Response cache hit rate, labeled by category, from the most recent report.",
	}, []string{"category"})

	costSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deepwiki_estimated_cost_saved_usd_total",
		Help: "Estimated USD saved by response cache hits, cumulative across reports.",
	})
)

// CostSummary mirrors the teacher's CostSummary: a snapshot of
// accumulated spend by model.
type CostSummary struct {
	TotalCost   float64
	TotalTokens int64
	ModelCosts  map[string]float64
}

// Recorder aggregates stage/agent events into Prometheus metrics and
// OpenTelemetry spans, and keeps a running cost summary the way the
// teacher's Telemetry.costTracker does. A nil *Recorder is safe to
// call methods on — every method is a no-op, so callers that construct
// telemetry only when enabled don't need extra nil checks.
type Recorder struct {
	enabled bool
	tracer  trace.Tracer
	logger  *log.Logger

	mu         sync.Mutex
	totalCost  float64
	totalTok   int64
	modelCosts map[string]float64
}

// NewRecorder builds a Recorder. When enabled is false, Record* calls
// still log (via logger) and RecordAgent still folds cost into the
// running CostSummary, but Prometheus metrics are skipped, matching the
// teacher's cfg.Enabled early returns.
func NewRecorder(enabled bool, tracer trace.Tracer) *Recorder {
	return &Recorder{
		enabled:    enabled,
		tracer:     tracer,
		logger:     log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		modelCosts: make(map[string]float64),
	}
}

// StartSpan opens a span named name, grounded on the teacher's
// orchestrator span-per-stage usage.
func (r *Recorder) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if r == nil || r.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return r.tracer.Start(ctx, name)
}

// RecordStage records a pipeline stage's outcome and duration.
func (r *Recorder) RecordStage(span trace.Span, stage string, dur time.Duration, err error) {
	endSpan(span, err)
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.logger.Printf("stage=%s status=%s duration=%v", stage, status, dur)
	if !r.enabled {
		return
	}
	stageRuns.WithLabelValues(stage, status).Inc()
	stageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

// RecordAgent records one agent call's outcome, latency, and token
// cost, folding the cost into the running CostSummary the way
// Telemetry.RecordAgentEvent does.
func (r *Recorder) RecordAgent(span trace.Span, agentType, model string, dur time.Duration, tokensUsed int64, cost float64, err error) {
	endSpan(span, err)
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.logger.Printf("agent=%s model=%s status=%s duration=%v tokens=%d cost=$%.4f", agentType, model, status, dur, tokensUsed, cost)

	r.mu.Lock()
	r.totalCost += cost
	r.totalTok += tokensUsed
	if model != "" {
		r.modelCosts[model] += cost
	}
	r.mu.Unlock()

	if !r.enabled {
		return
	}
	agentRuns.WithLabelValues(agentType, status).Inc()
	agentDuration.WithLabelValues(agentType).Observe(dur.Seconds())
	if model != "" {
		llmTokens.WithLabelValues(model).Add(float64(tokensUsed))
	}
}

// RecordCacheReport publishes the cache's per-category hit rate and
// cost-saved figures, sourced from cache.Manager.Report.
func (r *Recorder) RecordCacheReport(reports []cache.CategoryReport) {
	if r == nil {
		return
	}
	var saved float64
	for _, rep := range reports {
		r.logger.Printf("cache category=%s hit_rate=%.2f%% cost_saved=$%.4f", rep.Category, rep.HitRate*100, rep.CostSaved)
		saved += rep.CostSaved
		if r.enabled {
			cacheHitRate.WithLabelValues(rep.Category).Set(rep.HitRate)
		}
	}
	if r.enabled && saved > 0 {
		costSavedTotal.Add(saved)
	}
}

// CostSummary returns a snapshot of accumulated agent cost.
func (r *Recorder) CostSummary() CostSummary {
	if r == nil {
		return CostSummary{ModelCosts: map[string]float64{}}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := CostSummary{TotalCost: r.totalCost, TotalTokens: r.totalTok, ModelCosts: make(map[string]float64, len(r.modelCosts))}
	for k, v := range r.modelCosts {
		summary.ModelCosts[k] = v
	}
	return summary
}

func endSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
