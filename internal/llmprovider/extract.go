package llmprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/sopaco/deepwiki-rs/internal/apperr"
	"github.com/sopaco/deepwiki-rs/internal/cache"
)

// deriveSchema builds a minimal JSON Schema (object/array/string/number/
// bool/nested-object) from a Go struct via reflection, keyed by each
// field's json tag. This stands in for the original's serde-derived
// schema and only needs to be good enough to steer providers that support
// native structured output; the multi-strategy parse below is what
// actually guarantees a valid T on providers that don't.
func deriveSchema(v interface{}) map[string]interface{} {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return map[string]interface{}{
		"name":   t.Name(),
		"schema": schemaForType(t),
		"strict": true,
	}
}

func schemaForType(t reflect.Type) map[string]interface{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		properties := map[string]interface{}{}
		var required []string
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			tag := field.Tag.Get("json")
			name := field.Name
			if tag != "" {
				parts := strings.Split(tag, ",")
				if parts[0] == "-" {
					continue
				}
				if parts[0] != "" {
					name = parts[0]
				}
			}
			properties[name] = schemaForType(field.Type)
			required = append(required, name)
		}
		return map[string]interface{}{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		}
	case reflect.Slice, reflect.Array:
		return map[string]interface{}{
			"type":  "array",
			"items": schemaForType(t.Elem()),
		}
	case reflect.Map:
		return map[string]interface{}{"type": "object"}
	case reflect.String:
		return map[string]interface{}{"type": "string"}
	case reflect.Bool:
		return map[string]interface{}{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]interface{}{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]interface{}{"type": "number"}
	default:
		return map[string]interface{}{}
	}
}

// parseJSONMultiStrategy attempts, in order: a direct parse of the trimmed
// text, extraction from a fenced ```json code block, and a brace-depth
// scan for the first balanced JSON object/array in the text. Grounded on
// the original's cascading ollama extractor (original_source's local
// provider fallback chain), generalized to any provider lacking native
// schema enforcement.
func parseJSONMultiStrategy(text string, out interface{}) error {
	strategies := []func(string) (string, bool){
		directJSON,
		fencedCodeBlock,
		firstBalancedJSONValue,
	}
	var lastErr error
	for _, strategy := range strategies {
		candidate, ok := strategy(text)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON candidate found in response")
	}
	return fmt.Errorf("%w: %v", apperr.ErrExtractionInvalid, lastErr)
}

func directJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func fencedCodeBlock(text string) (string, bool) {
	fenceMarkers := []string{"```json", "```JSON", "```"}
	for _, marker := range fenceMarkers {
		start := strings.Index(text, marker)
		if start == -1 {
			continue
		}
		rest := text[start+len(marker):]
		end := strings.Index(rest, "```")
		if end == -1 {
			continue
		}
		return strings.TrimSpace(rest[:end]), true
	}
	return "", false
}

func firstBalancedJSONValue(text string) (string, bool) {
	openers := map[byte]byte{'{': '}', '[': ']'}
	for i := 0; i < len(text); i++ {
		closer, ok := openers[text[i]]
		if !ok {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for j := i; j < len(text); j++ {
			c := text[j]
			if inString {
				if escaped {
					escaped = false
				} else if c == '\\' {
					escaped = true
				} else if c == '"' {
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case text[i]:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return text[i : j+1], true
				}
			}
		}
	}
	return "", false
}

// Extract performs a schema-constrained completion for T, using the
// provider's native structured output where supported and the
// multi-strategy JSON parse (with one validation-error-augmented retry)
// otherwise. Results are cached like any other completion. The returned
// Usage is zero on a cache hit, matching CompleteWithUsage's convention.
func Extract[T any](ctx context.Context, c *Client, category, sys, user string) (T, Usage, error) {
	var zero T
	schema := deriveSchema(zero)

	cacheKey := sys + "\x00" + user + "\x00extract"
	if cached, ok := cache.Get[T](c.cacheMgr, category, cacheKey, c.cfg.PrimaryModel, c.cfg.Temperature); ok {
		return cached, Usage{}, nil
	}

	usedModel := c.cfg.PrimaryModel
	usedTransport := c.primary
	result, err := c.extractOnce(ctx, c.primary, schema, sys, user)
	if err != nil && !c.skipFallback {
		c.logger.Printf("primary extraction failed for category=%s, trying fallback model: %v", category, err)
		usedModel = c.cfg.FallbackModel
		usedTransport = c.fallback
		result, err = c.extractOnce(ctx, c.fallback, schema, sys, user)
	}
	if err != nil {
		return zero, Usage{}, fmt.Errorf("llmprovider: extract: %w", err)
	}

	var out T
	if parseErr := parseJSONMultiStrategy(result.Text, &out); parseErr != nil {
		retryUser := user + "\n\nYour previous response could not be parsed as valid JSON matching the required schema. Error: " +
			parseErr.Error() + "\nRespond with ONLY the JSON object, no commentary or code fences."
		retryResult, retryErr := c.extractOnce(ctx, usedTransport, schema, sys, retryUser)
		if retryErr != nil {
			return zero, Usage{}, fmt.Errorf("llmprovider: extract retry: %w", retryErr)
		}
		if parseErr := parseJSONMultiStrategy(retryResult.Text, &out); parseErr != nil {
			return zero, Usage{}, fmt.Errorf("llmprovider: extract: %w", parseErr)
		}
		result = retryResult
	}

	if err := cache.Set(c.cacheMgr, category, cacheKey, usedModel, c.cfg.Temperature, out, &cache.TokenUsage{
		InputTokens: result.Usage.InputTokens, OutputTokens: result.Usage.OutputTokens,
	}); err != nil {
		c.logger.Printf("cache write failed: %v", err)
	}
	return out, result.Usage, nil
}

func (c *Client) extractOnce(ctx context.Context, transport Transport, schema map[string]interface{}, sys, user string) (CompletionResult, error) {
	messages := []Message{{Role: RoleSystem, Content: sys}, {Role: RoleUser, Content: user}}
	return retryWithBackoff(ctx, c.cfg.MaxRetries, 0, func(ctx context.Context) (CompletionResult, error) {
		return transport.Complete(ctx, messages, schema, nil)
	})
}
