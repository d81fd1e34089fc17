package llmprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sopaco/deepwiki-rs/internal/apperr"
)

// loopState is the ReAct state machine's phase, matching spec §4.3's
// named states: the model is asked for its next move, a requested tool
// call is dispatched, a final answer is being assembled, or the
// iteration cap was hit without a final answer.
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateDispatchingTool
	stateFinalizing
	stateExhausted
)

// ToolDispatcher invokes a named tool with the model-supplied arguments
// and returns its textual result to feed back into the conversation.
type ToolDispatcher func(ctx context.Context, name string, args map[string]interface{}) (string, error)

// ToolLoopConfig bounds and customizes a tool-augmented reasoning run.
type ToolLoopConfig struct {
	Tools         []ToolDef
	Dispatch      ToolDispatcher
	MaxIterations int
	// Summarize, if set, is invoked with the full transcript when the
	// iteration cap is hit, producing a best-effort final answer instead
	// of surfacing ErrMaxDepthExceeded.
	Summarize func(ctx context.Context, transcript []Message) (string, error)
}

// ToolLoopResult is what CompleteWithTools returns on success.
type ToolLoopResult struct {
	FinalText  string
	Iterations int
	Usage      Usage
}

// CompleteWithTools drives the ReAct-style loop: on each iteration the
// primary transport is asked for its next move; a tool call transitions
// to stateDispatchingTool and the result is appended as a RoleTool
// message; a plain text response with no tool call transitions to
// stateFinalizing. Hitting MaxIterations without a final answer either
// invokes the configured summarizer or returns ErrMaxDepthExceeded,
// matching the teacher's bounded-loop pattern generalized with the
// spec's named-state semantics.
func (c *Client) CompleteWithTools(ctx context.Context, category, sys, user string, cfg ToolLoopConfig) (ToolLoopResult, error) {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	transcript := []Message{{Role: RoleSystem, Content: sys}, {Role: RoleUser, Content: user}}
	state := stateAwaitingModel
	var totalUsage Usage

	for iteration := 0; iteration < maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return ToolLoopResult{}, apperr.ErrCancelled
		}

		switch state {
		case stateAwaitingModel:
			result, err := retryWithBackoff(ctx, c.cfg.MaxRetries, 0, func(ctx context.Context) (CompletionResult, error) {
				return c.primary.Complete(ctx, transcript, nil, cfg.Tools)
			})
			if err != nil {
				return ToolLoopResult{}, fmt.Errorf("llmprovider: tool loop: %w", err)
			}
			totalUsage.InputTokens += result.Usage.InputTokens
			totalUsage.OutputTokens += result.Usage.OutputTokens

			if len(result.ToolCalls) == 0 {
				transcript = append(transcript, Message{Role: RoleAssistant, Content: result.Text})
				state = stateFinalizing
				return ToolLoopResult{FinalText: result.Text, Iterations: iteration + 1, Usage: totalUsage}, nil
			}

			transcript = append(transcript, Message{Role: RoleAssistant, Content: result.Text})
			state = stateDispatchingTool

			for _, call := range result.ToolCalls {
				toolResult, dispatchErr := c.dispatchTool(ctx, cfg.Dispatch, call)
				transcript = append(transcript, Message{Role: RoleTool, Content: toolResult, ToolName: call.Name})
				if dispatchErr != nil {
					c.logger.Printf("tool %q failed: %v", call.Name, dispatchErr)
				}
			}
			state = stateAwaitingModel

		default:
			state = stateAwaitingModel
		}
	}

	state = stateExhausted
	if cfg.Summarize != nil {
		finalText, err := cfg.Summarize(ctx, transcript)
		if err != nil {
			return ToolLoopResult{}, fmt.Errorf("llmprovider: tool loop summarizer: %w", err)
		}
		return ToolLoopResult{FinalText: finalText, Iterations: maxIterations, Usage: totalUsage}, nil
	}
	_ = state
	return ToolLoopResult{}, apperr.ErrMaxDepthExceeded
}

func (c *Client) dispatchTool(ctx context.Context, dispatch ToolDispatcher, call ToolCall) (string, error) {
	if dispatch == nil {
		return "", fmt.Errorf("%w: no dispatcher configured for tool %q", apperr.ErrToolError, call.Name)
	}
	result, err := dispatch(ctx, call.Name, call.Arguments)
	if err != nil {
		encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(encoded), fmt.Errorf("%w: %v", apperr.ErrToolError, err)
	}
	return result, nil
}
