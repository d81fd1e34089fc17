// Package agent implements the Agent Runtime (C5): the declarative
// seven-step lifecycle shared by every research and compose agent —
// resolve inputs, format inputs, prune, build prompt, invoke provider,
// store result, post-process.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/apperr"
	"github.com/sopaco/deepwiki-rs/internal/knowledge"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
	"github.com/sopaco/deepwiki-rs/internal/memory"
	"github.com/sopaco/deepwiki-rs/internal/telemetry"
	"github.com/sopaco/deepwiki-rs/models"
)

// DataDependency describes one of an agent's declared inputs (spec
// §4.5) for logging and required/optional bookkeeping. The actual
// type-safe fetch lives in the Input's Fetch closure, built by
// MemoryInput/ResearchInput/KnowledgeInput below via memory.Get[T] —
// this keeps every stored shape's Go type intact instead of round
// tripping through interface{} JSON decoding.
type DataDependency interface {
	isDataDependency()
	describe() string
	required() bool
	scope() string
}

// MemoryEntry resolves a value stored under scope:key in C1.
type MemoryEntry struct {
	Scope    memory.Scope
	Key      string
	Required bool
}

func (MemoryEntry) isDataDependency() {}
func (d MemoryEntry) describe() string { return string(d.Scope) + ":" + d.Key }
func (d MemoryEntry) required() bool   { return d.Required }
func (d MemoryEntry) scope() string    { return string(d.Scope) }

// KnowledgeCategoryInput loads a category via C4, scoped to the
// consuming agent's name.
type KnowledgeCategoryInput struct {
	Category string
	Required bool
}

func (KnowledgeCategoryInput) isDataDependency() {}
func (d KnowledgeCategoryInput) describe() string { return "knowledge:" + d.Category }
func (d KnowledgeCategoryInput) required() bool   { return d.Required }
func (d KnowledgeCategoryInput) scope() string    { return "KNOWLEDGE" }

// Input binds a DataDependency to a named template placeholder. Fetch
// performs the type-safe retrieval; Format renders the fetched value
// into prompt text, defaulting by Go type when nil.
type Input struct {
	Placeholder string
	Dependency  DataDependency
	Fetch       func(e *Executor, agentName string) (value interface{}, found bool, err error)
	Format      func(value interface{}) string
}

// MemoryInput builds an Input reading a typed value from an arbitrary
// memory scope:key.
func MemoryInput[T any](placeholder string, scope memory.Scope, key string, required bool) Input {
	dep := MemoryEntry{Scope: scope, Key: key, Required: required}
	return Input{
		Placeholder: placeholder,
		Dependency:  dep,
		Fetch: func(e *Executor, _ string) (interface{}, bool, error) {
			v, ok := memory.Get[T](e.Memory, scope, key)
			return v, ok, nil
		},
	}
}

// ResearchInput is sugar for a MemoryInput under the RESEARCH scope,
// keyed by the producing agent's name.
func ResearchInput[T any](placeholder, producingAgent string, required bool) Input {
	return MemoryInput[T](placeholder, memory.ScopeResearch, producingAgent, required)
}

// KnowledgeInput builds an Input loading a knowledge-store category
// scoped to the consuming agent's own name.
func KnowledgeInput(placeholder, category string, required bool) Input {
	dep := KnowledgeCategoryInput{Category: category, Required: required}
	return Input{
		Placeholder: placeholder,
		Dependency:  dep,
		Fetch: func(e *Executor, agentName string) (interface{}, bool, error) {
			if e.Knowledge == nil {
				return nil, false, nil
			}
			blob, err := e.Knowledge.LoadFor(category, agentName)
			if err != nil {
				if isDependencyMissing(err) {
					return nil, false, nil
				}
				return nil, false, err
			}
			return blob, true, nil
		},
	}
}

// StaticEntry wraps a value already in hand (not fetched from C1/C4) so
// it can flow through the same placeholder-substitution/formatting path
// as a memory- or knowledge-backed input — e.g. a file snippet read
// directly off disk by the caller.
type StaticEntry struct {
	Name     string
	Required bool
}

func (StaticEntry) isDataDependency() {}
func (d StaticEntry) describe() string { return "static:" + d.Name }
func (d StaticEntry) required() bool   { return d.Required }
func (d StaticEntry) scope() string    { return "STATIC" }

// StaticInput builds an Input around a value the caller already has,
// rather than one fetched from memory or the knowledge store.
func StaticInput(placeholder string, value interface{}, required bool) Input {
	return Input{
		Placeholder: placeholder,
		Dependency:  StaticEntry{Name: placeholder, Required: required},
		Fetch: func(*Executor, string) (interface{}, bool, error) {
			return value, value != nil && value != "", nil
		},
	}
}

// Base carries the fields common to every call mode.
type Base struct {
	Name            string
	Inputs          []Input
	SystemPrompt    string
	OpeningSection  string
	ClosingSection  string
	OutputScope     memory.Scope
	OutputKey       string
	FormatterConfig FormatterConfig
	// IncludeTimestamp gates the current-time placeholder block, mirroring
	// step_forward_agent.rs's should_include_timestamp — false for
	// research agents, true for compose editors that render dates into
	// documentation headers.
	IncludeTimestamp bool
}

// Executor runs the seven-step lifecycle against the pipeline's shared
// collaborators. One Executor is shared across every agent invocation
// in a pipeline run.
type Executor struct {
	Memory              *memory.Memory
	Knowledge           *knowledge.Store
	Client              *llmprovider.Client
	Compressor          *Compressor
	LanguageInstruction string
	Now                 func() time.Time
	Telemetry           *telemetry.Recorder
	// PriceTable prices each agent category's token usage for the
	// telemetry cost summary that internal/budget's guardrails are
	// checked against; a category absent from the table costs nothing.
	PriceTable map[string]config.ModelPrice

	outcomesMu sync.Mutex
	outcomes   []AgentOutcome
}

// AgentOutcome records one agent invocation's terminal status for the
// pipeline summary report (spec §7): success, or failure with the
// classifying error taxon.
type AgentOutcome struct {
	Name  string
	OK    bool
	Taxon string
	Error string
}

// Outcomes returns every agent outcome recorded so far, in call order.
// Safe to call concurrently with in-flight agent runs (a fan-out layer
// may still be recording); the pipeline calls it only after all agents
// in a stage have returned.
func (e *Executor) Outcomes() []AgentOutcome {
	e.outcomesMu.Lock()
	defer e.outcomesMu.Unlock()
	out := make([]AgentOutcome, len(e.outcomes))
	copy(out, e.outcomes)
	return out
}

func (e *Executor) recordOutcome(name string, err error) {
	outcome := AgentOutcome{Name: name, OK: err == nil}
	if err != nil {
		outcome.Taxon = apperr.Taxon(err)
		outcome.Error = err.Error()
	}
	e.outcomesMu.Lock()
	e.outcomes = append(e.outcomes, outcome)
	e.outcomesMu.Unlock()
}

// withAgentSpan wraps one agent invocation in a telemetry span, mirroring
// pipeline.Driver.timeStage's span-then-record shape at agent
// granularity: the span covers fn's actual work, and its outcome feeds
// both the Prometheus agent counters and this executor's outcome log.
// category prices the run's usage against PriceTable so the telemetry
// recorder's running CostSummary reflects real spend, not just savings
// (internal/cache.Manager.Report covers the savings side separately) -
// that real spend is what internal/pipeline checks against
// internal/budget's guardrails after every stage.
func (e *Executor) withAgentSpan(ctx context.Context, category, name string, fn func(ctx context.Context) (llmprovider.Usage, error)) error {
	spanCtx, span := e.Telemetry.StartSpan(ctx, name)
	start := e.now()
	usage, err := fn(spanCtx)
	dur := e.now().Sub(start)

	model := ""
	if e.Client != nil {
		model = e.Client.ModelID()
	}
	cost := e.estimateCost(category, usage)
	e.Telemetry.RecordAgent(span, name, model, dur, usage.InputTokens+usage.OutputTokens, cost, err)
	e.recordOutcome(name, err)
	return err
}

func (e *Executor) estimateCost(category string, usage llmprovider.Usage) float64 {
	price, ok := e.PriceTable[category]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)*price.InputPer1K/1000.0 + float64(usage.OutputTokens)*price.OutputPer1K/1000.0
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// resolvedInput pairs a rendered placeholder value with whether its
// dependency was found at all (for optional-dependency bookkeeping).
type resolvedInput struct {
	placeholder string
	text        string
	found       bool
}

// resolveInputs implements lifecycle steps 1-2: fetch each dependency
// from memory or the knowledge store, formatting structured values as
// it goes. A missing required dependency fails fast.
func (e *Executor) resolveInputs(inputs []Input, agentName string) ([]resolvedInput, error) {
	out := make([]resolvedInput, 0, len(inputs))
	for _, in := range inputs {
		value, found, err := in.Fetch(e, agentName)
		if err != nil {
			return nil, err
		}
		if !found {
			if in.Dependency.required() {
				return nil, fmt.Errorf("agent %s: %w", agentName, apperr.DependencyMissing(in.Dependency.scope(), in.Dependency.describe()))
			}
			out = append(out, resolvedInput{placeholder: in.Placeholder, text: "", found: false})
			continue
		}

		text := ""
		if in.Format != nil {
			text = in.Format(value)
		} else {
			text = defaultFormat(value)
		}
		out = append(out, resolvedInput{placeholder: in.Placeholder, text: text, found: true})
	}
	return out, nil
}

func isDependencyMissing(err error) bool {
	return err != nil && strings.Contains(err.Error(), "dependency missing")
}

func defaultFormat(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []models.CodeInsight:
		return FormatCodeInsights(v, FormatterConfig{})
	case models.RelationshipAnalysis:
		return FormatRelationshipAnalysis(v)
	case fmt.Stringer:
		return v.String()
	default:
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// buildPrompt implements lifecycle step 4: substitute placeholders,
// append the localization directive to both system and user prompts,
// and inject the optional timestamp block, grounded on
// build_standard_user_prompt/replace_time_placeholders.
func (e *Executor) buildPrompt(base Base, resolved []resolvedInput) (system, user string) {
	var b strings.Builder
	b.WriteString(base.OpeningSection)
	b.WriteString("\n\n")

	if base.IncludeTimestamp {
		now := e.now()
		fmt.Fprintf(&b, "## Current Time Information\nGeneration time: %s (UTC)\nTimestamp: %d\n\n",
			now.Format("2006-01-02 15:04:05"), now.Unix())
	}

	for _, r := range resolved {
		fmt.Fprintf(&b, "## %s\n%s\n\n", r.placeholder, placeholderText(r))
	}
	b.WriteString(base.ClosingSection)
	user = b.String()
	system = base.SystemPrompt

	if e.LanguageInstruction != "" {
		system = system + "\n\n" + e.LanguageInstruction
		user = user + "\n\n" + e.LanguageInstruction
	}
	return system, user
}

func placeholderText(r resolvedInput) string {
	if !r.found || r.text == "" {
		return "(not available)"
	}
	return r.text
}

// RunPlain executes the lifecycle in Plain call mode, storing the raw
// string result under base.OutputScope/base.OutputKey. The whole run is
// wrapped in a telemetry span and recorded as one agent outcome (spec
// §7), whether it fails resolving inputs, calling the provider, or
// post-processing.
func (e *Executor) RunPlain(ctx context.Context, category string, base Base, postProcess func(context.Context, string) error) (string, error) {
	var result string
	runErr := e.withAgentSpan(ctx, category, base.Name, func(ctx context.Context) (llmprovider.Usage, error) {
		resolved, err := e.resolveInputs(base.Inputs, base.Name)
		if err != nil {
			return llmprovider.Usage{}, err
		}
		sys, user := e.buildPrompt(base, resolved)

		prunedUser, err := e.Compressor.Prune(ctx, user)
		if err != nil {
			return llmprovider.Usage{}, fmt.Errorf("agent %s: %w", base.Name, err)
		}

		text, usage, err := e.Client.CompleteWithUsage(ctx, category, sys, prunedUser)
		if err != nil {
			return usage, fmt.Errorf("agent %s: %w", base.Name, err)
		}
		result = text

		if err := e.Memory.Store(base.OutputScope, base.OutputKey, result); err != nil {
			return usage, fmt.Errorf("agent %s: store result: %w", base.Name, err)
		}

		if postProcess != nil {
			if err := postProcess(ctx, result); err != nil {
				return usage, fmt.Errorf("agent %s: post-process: %w", base.Name, err)
			}
		}
		return usage, nil
	})
	if runErr != nil {
		return "", runErr
	}
	return result, nil
}

// ToolsResult is what RunWithTools returns before post-processing.
type ToolsResult struct {
	FinalText  string
	Iterations int
}

// RunWithTools executes the lifecycle in WithTools call mode, driving
// the ReAct loop and storing the final text plus tool-call count. Per
// spec §4.3's enable_summary_reasoning default, a caller that leaves
// loopCfg.Summarize unset gets defaultSummarizer wired in here, so every
// WithTools agent produces a best-effort partial answer on hitting
// max_iterations instead of ErrMaxDepthExceeded. The run is wrapped in a
// telemetry span and recorded as one agent outcome (spec §7).
func (e *Executor) RunWithTools(ctx context.Context, category string, base Base, loopCfg llmprovider.ToolLoopConfig, postProcess func(context.Context, ToolsResult) error) (ToolsResult, error) {
	if loopCfg.Summarize == nil {
		loopCfg.Summarize = e.defaultSummarizer(category)
	}

	var result ToolsResult
	runErr := e.withAgentSpan(ctx, category, base.Name, func(ctx context.Context) (llmprovider.Usage, error) {
		resolved, err := e.resolveInputs(base.Inputs, base.Name)
		if err != nil {
			return llmprovider.Usage{}, err
		}
		sys, user := e.buildPrompt(base, resolved)

		prunedUser, err := e.Compressor.Prune(ctx, user)
		if err != nil {
			return llmprovider.Usage{}, fmt.Errorf("agent %s: %w", base.Name, err)
		}

		loopResult, err := e.Client.CompleteWithTools(ctx, category, sys, prunedUser, loopCfg)
		if err != nil {
			return loopResult.Usage, fmt.Errorf("agent %s: %w", base.Name, err)
		}

		result = ToolsResult{FinalText: loopResult.FinalText, Iterations: loopResult.Iterations}
		stored := map[string]interface{}{"text": result.FinalText, "iterations": result.Iterations}
		if err := e.Memory.Store(base.OutputScope, base.OutputKey, stored); err != nil {
			return loopResult.Usage, fmt.Errorf("agent %s: store result: %w", base.Name, err)
		}

		if postProcess != nil {
			if err := postProcess(ctx, result); err != nil {
				return loopResult.Usage, fmt.Errorf("agent %s: post-process: %w", base.Name, err)
			}
		}
		return loopResult.Usage, nil
	})
	if runErr != nil {
		return ToolsResult{}, runErr
	}
	return result, nil
}

// defaultSummarizer asks the provider facade for a plain completion over
// the loop's transcript, standing in for the ReAct loop's own model when
// the iteration cap is hit with no final answer yet.
func (e *Executor) defaultSummarizer(category string) func(context.Context, []llmprovider.Message) (string, error) {
	return func(ctx context.Context, transcript []llmprovider.Message) (string, error) {
		var b strings.Builder
		for _, m := range transcript {
			fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		}
		sys := "You are finishing an analysis that ran out of reasoning steps before reaching a final answer. Summarize the transcript below into the best final answer you can, using only what was already discovered."
		return e.Client.Complete(ctx, category, sys, b.String())
	}
}
