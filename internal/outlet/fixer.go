package outlet

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MermaidFixer runs a best-effort structural repair pass over every
// Mermaid code fence in the documents DiskOutlet just wrote, grounded
// on outlet/mod.rs's post-save call to MermaidFixer::auto_fix_after_output.
// The original shells out to a standalone mermaid-fixer binary and logs
// (rather than fails) when it isn't installed; SPEC_FULL.md's Non-goals
// explicitly rule out spawning external CLIs, so this is reimplemented
// as an in-process pass over two common mistakes LLM-generated Mermaid
// blocks make: smart quotes inside node labels, and subgraph blocks
// missing their closing "end". Other syntax errors (unbalanced brackets
// included) are not repaired. It never fails the pipeline: file I/O
// errors are logged and the file is left as it was.
type MermaidFixer struct {
	Logger *log.Logger
}

// NewMermaidFixer constructs a MermaidFixer.
func NewMermaidFixer() *MermaidFixer {
	return &MermaidFixer{Logger: log.New(log.Writer(), "[MERMAID] ", log.LstdFlags)}
}

var mermaidFence = regexp.MustCompile("(?s)```mermaid\n(.*?)\n```")

var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// FixDir walks dir for .md files and rewrites each Mermaid fence through
// fixBlock, overwriting the file only when a fence actually changed.
func (f *MermaidFixer) FixDir(dir string) error {
	logger := f.logger()
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Printf("error occurred during mermaid diagram repair: %v", err)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Printf("error occurred during mermaid diagram repair: %v", err)
			return nil
		}

		changed := false
		fixed := mermaidFence.ReplaceAllStringFunc(string(raw), func(block string) string {
			inner := mermaidFence.FindStringSubmatch(block)[1]
			repaired := fixBlock(inner)
			if repaired != inner {
				changed = true
			}
			return "```mermaid\n" + repaired + "\n```"
		})

		if changed {
			if err := os.WriteFile(path, []byte(fixed), 0o644); err != nil {
				logger.Printf("error occurred during mermaid diagram repair: %v", err)
			}
		}
		return nil
	})
}

// fixBlock repairs one Mermaid diagram body: normalizes smart quotes
// (Mermaid's parser rejects them inside labels) and appends a missing
// "end" per unclosed "subgraph".
func fixBlock(body string) string {
	body = smartQuoteReplacer.Replace(body)

	lines := strings.Split(body, "\n")
	depth := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "subgraph "), trimmed == "subgraph":
			depth++
		case trimmed == "end":
			if depth > 0 {
				depth--
			}
		}
	}
	for ; depth > 0; depth-- {
		lines = append(lines, "end")
	}
	return strings.Join(lines, "\n")
}

func (f *MermaidFixer) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.New(log.Writer(), "[MERMAID] ", log.LstdFlags)
}
