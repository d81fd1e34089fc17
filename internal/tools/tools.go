// Package tools implements the read-only tool registry (spec §4.7)
// surfaced to the architecture research agent's WithTools call mode:
// directory listing, bounded file reading, and a current-time query.
// Every tool resolves paths against a fixed project root and refuses to
// escape it.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sopaco/deepwiki-rs/internal/capability"
	"github.com/sopaco/deepwiki-rs/internal/llmprovider"
)

// Registry binds the tool set to a project root and produces both the
// ToolDef list advertised to the model and the Dispatcher that executes
// calls, grounded on original_source/src/llm/tools/{file_explorer,file_reader,time}.rs.
// capReg gates Dispatch against the closed ToolCard set (spec §6): a
// WithTools agent can only invoke a name the capability registry knows.
type Registry struct {
	root        string
	excludedDir map[string]bool
	capReg      *capability.Registry
}

// NewRegistry constructs a Registry rooted at root. excludedDirs mirrors
// config.PreprocessConfig.ExcludedDirs so the tool-facing view of the
// tree matches what the preprocess stage already analyzed. capReg may
// be nil, in which case Dispatch gates on nothing beyond its own switch
// (capability.Registry.Tool is nil-receiver-safe, so this is purely a
// convenience for callers/tests that don't care about capability gating).
func NewRegistry(root string, excludedDirs []string, capReg *capability.Registry) *Registry {
	excluded := make(map[string]bool, len(excludedDirs))
	for _, d := range excludedDirs {
		excluded[strings.ToLower(d)] = true
	}
	return &Registry{root: root, excludedDir: excluded, capReg: capReg}
}

// Defs returns the ToolDef list for llmprovider.ToolLoopConfig.Tools.
func (r *Registry) Defs() []llmprovider.ToolDef {
	return []llmprovider.ToolDef{
		{
			Name:        "list_directory",
			Description: "List files and subdirectories under a path relative to the project root.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Directory path relative to the project root; omit for the root itself.",
					},
				},
			},
		},
		{
			Name:        "read_file",
			Description: "Read a bounded slice of a text file's lines, relative to the project root.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "File path relative to the project root.",
					},
					"max_lines": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of lines to return (default 200).",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "now",
			Description: "Get the current UTC date and time.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// Dispatch implements llmprovider.ToolDispatcher against the three
// tools above. A capability registry configured on r rejects any tool
// name it doesn't carry a ToolCard for before the call ever reaches the
// switch below, closing the set to exactly what was registered.
func (r *Registry) Dispatch(_ context.Context, name string, args map[string]interface{}) (string, error) {
	if r.capReg != nil {
		if _, ok := r.capReg.Tool(name); !ok {
			return "", fmt.Errorf("tools: %q is not a registered capability", name)
		}
	}
	switch name {
	case "list_directory":
		return r.listDirectory(stringArg(args, "path"))
	case "read_file":
		return r.readFile(stringArg(args, "path"), intArg(args, "max_lines", 200))
	case "now":
		return r.now()
	default:
		return "", fmt.Errorf("tools: unknown tool %q", name)
	}
}

func (r *Registry) resolve(rel string) (string, error) {
	clean := filepath.Clean("/" + rel)[1:]
	full := filepath.Join(r.root, clean)
	if full != r.root && !strings.HasPrefix(full, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("tools: path %q escapes project root", rel)
	}
	return full, nil
}

func (r *Registry) isExcluded(name string) bool {
	return r.excludedDir[strings.ToLower(name)] || strings.HasPrefix(name, ".")
}

type dirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

func (r *Registry) listDirectory(rel string) (string, error) {
	full, err := r.resolve(rel)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return "", fmt.Errorf("tools: list_directory: %w", err)
	}
	out := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		if r.isExcluded(e.Name()) {
			continue
		}
		info, err := e.Info()
		size := int64(0)
		if err == nil {
			size = info.Size()
		}
		out = append(out, dirEntry{Name: e.Name(), IsDir: e.IsDir(), Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	encoded, err := json.Marshal(map[string]interface{}{"path": rel, "entries": out})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (r *Registry) readFile(rel string, maxLines int) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("tools: read_file: path is required")
	}
	full, err := r.resolve(rel)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("tools: read_file: %w", err)
	}
	lines := strings.Split(string(raw), "\n")
	truncated := false
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	content := strings.Join(lines, "\n")
	if truncated {
		content += fmt.Sprintf("\n\n... (truncated, showing first %d lines)", maxLines)
	}
	encoded, err := json.Marshal(map[string]interface{}{
		"path":      rel,
		"content":   content,
		"truncated": truncated,
	})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (r *Registry) now() (string, error) {
	now := time.Now().UTC()
	encoded, err := json.Marshal(map[string]interface{}{
		"utc_time":  now.Format("2006-01-02 15:04:05"),
		"timestamp": now.Unix(),
	})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
