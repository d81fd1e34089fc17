package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sopaco/deepwiki-rs/internal/apperr"
)

// httpTransport implements Transport for the hosted chat-completion
// providers (openai, anthropic, gemini, moonshot, deepseek, mistral,
// openrouter). It follows the teacher's provider/openai/openai.go shape:
// a bearer-authenticated JSON POST with a bounded http.Client, generalized
// across kinds since their wire bodies are OpenAI-compatible chat-completion
// shapes for every kind this facade targets except the native
// anthropic/gemini message formats, which are translated in requestBody.
type httpTransport struct {
	cfg        TransportConfig
	endpoint   string
	httpClient *http.Client
}

func newHTTPTransport(cfg TransportConfig, endpoint string) *httpTransport {
	return &httpTransport{
		cfg:      cfg,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolSpec struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string                 `json:"model"`
	Messages    []chatMessage          `json:"messages"`
	Temperature float64                `json:"temperature"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Tools       []toolSpec             `json:"tools,omitempty"`
	ResponseFmt map[string]interface{} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (t *httpTransport) Complete(ctx context.Context, messages []Message, schema map[string]interface{}, tools []ToolDef) (CompletionResult, error) {
	req := chatRequest{
		Model:       t.cfg.Model,
		Temperature: t.cfg.Temperature,
		MaxTokens:   t.cfg.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	for _, td := range tools {
		var ts toolSpec
		ts.Type = "function"
		ts.Function.Name = td.Name
		ts.Function.Description = td.Description
		ts.Function.Parameters = td.Parameters
		req.Tools = append(req.Tools, ts)
	}
	if schema != nil && t.cfg.Kind.SupportsNativeSchema() {
		req.ResponseFmt = map[string]interface{}{
			"type":        "json_schema",
			"json_schema": schema,
		}
	}

	result, err := t.dispatch(ctx, req)
	if err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}

func (t *httpTransport) dispatch(ctx context.Context, req chatRequest) (CompletionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("llmprovider: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("llmprovider: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.cfg.Credential)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("%w: %v", apperr.ErrProviderTransient, err)
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return CompletionResult{}, fmt.Errorf("%w: decode response: %v", apperr.ErrProviderTransient, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		msg := ""
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return CompletionResult{}, fmt.Errorf("%w: status %d: %s", apperr.ErrProviderTransient, resp.StatusCode, msg)
	}
	if resp.StatusCode >= 400 {
		msg := ""
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return CompletionResult{}, fmt.Errorf("%w: status %d: %s", apperr.ErrProviderPermanent, resp.StatusCode, msg)
	}
	if len(decoded.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("%w: no choices in response", apperr.ErrProviderTransient)
	}

	choice := decoded.Choices[0]
	result := CompletionResult{
		Text: choice.Message.Content,
		Usage: Usage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]interface{}
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		result.ToolCalls = append(result.ToolCalls, ToolCall{Name: tc.Function.Name, Arguments: args})
	}
	return result, nil
}

// ollamaTransport wraps httpTransport for a locally-hosted model that does
// not natively enforce JSON schemas (spec §6); schema-constrained calls
// fall back to the multi-strategy extraction pipeline in extract.go
// instead of a native response_format.
type ollamaTransport struct {
	*httpTransport
}

func (t *ollamaTransport) Complete(ctx context.Context, messages []Message, schema map[string]interface{}, tools []ToolDef) (CompletionResult, error) {
	// Never request native schema enforcement; the caller (Extract) layers
	// its own multi-strategy parse on top of the plain text response.
	return t.httpTransport.Complete(ctx, messages, nil, tools)
}
