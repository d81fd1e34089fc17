// Package llmprovider implements the Provider Facade (C3): an abstract
// LLM client offering plain completion, tool-augmented reasoning, and
// schema-constrained extraction, with retry+backoff, primary/fallback
// model routing, and response-cache integration.
package llmprovider

import (
	"context"
)

// Kind enumerates the recognized provider transports (spec §6). Adding a
// new kind requires a code change — this is a closed, tagged-variant
// enumeration by design (spec §9), not a runtime plugin registry.
type Kind string

const (
	KindOpenAI     Kind = "openai"
	KindAnthropic  Kind = "anthropic"
	KindGemini     Kind = "gemini"
	KindMoonshot   Kind = "moonshot"
	KindDeepSeek   Kind = "deepseek"
	KindMistral    Kind = "mistral"
	KindOpenRouter Kind = "openrouter"
	KindOllama     Kind = "ollama"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a chat-style conversation.
type Message struct {
	Role    Role
	Content string
	// ToolName is set on RoleTool messages to identify which tool call the
	// content answers.
	ToolName string
}

// ToolDef describes a callable tool surfaced to the reasoning loop.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema
}

// ToolCall is a single model-emitted tool invocation request.
type ToolCall struct {
	Name      string
	Arguments map[string]interface{}
}

// Usage records provider-reported (or estimated) token consumption.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// CompletionResult is what a transport returns for one turn.
type CompletionResult struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// SupportsNativeSchema reports whether a transport enforces JSON schemas
// natively. Providers that do not (the local-inference case, ollama)
// trigger the multi-strategy extraction fallback in extract.go.
func (k Kind) SupportsNativeSchema() bool {
	return k != KindOllama
}

// Transport is the pluggable per-kind wire client. Dispatch on the kind
// enum happens in NewTransport.
type Transport interface {
	// Complete sends messages and returns the model's response. schema, if
	// non-nil, requests schema-constrained output where the transport
	// supports it natively. tools, if non-empty, enables tool-calling.
	Complete(ctx context.Context, messages []Message, schema map[string]interface{}, tools []ToolDef) (CompletionResult, error)
}

// TransportConfig carries the per-call wire configuration for a transport.
type TransportConfig struct {
	Kind        Kind
	Model       string
	APIBaseURL  string
	Credential  string
	Temperature float64
	MaxTokens   int
}

// NewTransport dispatches on kind to construct the concrete wire client.
func NewTransport(cfg TransportConfig) (Transport, error) {
	switch cfg.Kind {
	case KindOllama:
		return &ollamaTransport{httpTransport: newHTTPTransport(cfg, defaultEndpointFor(cfg.Kind, cfg.APIBaseURL))}, nil
	case KindOpenAI, KindAnthropic, KindGemini, KindMoonshot, KindDeepSeek, KindMistral, KindOpenRouter:
		return newHTTPTransport(cfg, defaultEndpointFor(cfg.Kind, cfg.APIBaseURL)), nil
	default:
		return nil, unknownKindError(cfg.Kind)
	}
}

func defaultEndpointFor(kind Kind, override string) string {
	if override != "" {
		return override
	}
	switch kind {
	case KindOpenAI:
		return "https://api.openai.com/v1/chat/completions"
	case KindAnthropic:
		return "https://api.anthropic.com/v1/messages"
	case KindGemini:
		return "https://generativelanguage.googleapis.com/v1beta/models/chat:generate"
	case KindMoonshot:
		return "https://api.moonshot.cn/v1/chat/completions"
	case KindDeepSeek:
		return "https://api.deepseek.com/chat/completions"
	case KindMistral:
		return "https://api.mistral.ai/v1/chat/completions"
	case KindOpenRouter:
		return "https://openrouter.ai/api/v1/chat/completions"
	case KindOllama:
		return "http://localhost:11434/api/chat"
	default:
		return ""
	}
}
