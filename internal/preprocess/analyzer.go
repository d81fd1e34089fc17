package preprocess

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/sopaco/deepwiki-rs/models"
)

// StaticAnalyzer is the preprocess stage's collaborator contract (spec
// §4.6): this stage calls its API and marshals the outputs into a
// CodeInsight, but does not itself specify parsing rules — per-language
// grammar is out of scope. HeuristicAnalyzer below is a minimal,
// illustrative stand-in grounded on the line-oriented regex style of
// original_source/.../language_processors/csharp.rs, not a claim of
// full multi-language coverage.
type StaticAnalyzer interface {
	Analyze(ctx context.Context, relPath string, content []byte) (StaticAnalysis, error)
}

// StaticAnalysis is the collaborator's per-file output, prior to
// purpose classification and LLM enrichment.
type StaticAnalysis struct {
	Interfaces   []models.Interface
	Dependencies []models.Dependency
	Complexity   models.ComplexityMetrics
}

// importRules map a file extension to a line-prefix regex whose first
// non-empty capture group is the imported module/package name; whether
// an import is external is decided afterwards by looksExternal. This is the same
// per-language, line-scanning shape as csharp.rs's extract_dependencies,
// reduced to the languages most likely to appear in the retrieval
// pack's example repos (Go, JS/TS, Python).
var importRules = map[string]*regexp.Regexp{
	"go": regexp.MustCompile(`^\s*"([^"]+)"\s*$`),
	"py": regexp.MustCompile(`^\s*(?:from\s+(\S+)\s+import|import\s+(\S+))`),
	"js": regexp.MustCompile(`^\s*import\s+.*from\s+['"]([^'"]+)['"]`),
	"ts": regexp.MustCompile(`^\s*import\s+.*from\s+['"]([^'"]+)['"]`),
}

var funcDeclRules = map[string]*regexp.Regexp{
	"go": regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	"py": regexp.MustCompile(`^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	"js": regexp.MustCompile(`^\s*(?:export\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	"ts": regexp.MustCompile(`^\s*(?:export\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
}

var exportedFuncRules = map[string]*regexp.Regexp{
	"go": regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Z][A-Za-z0-9_]*)\s*\(`),
}

// HeuristicAnalyzer is the default StaticAnalyzer: a line-scanning,
// per-extension regex pass over file content, with complexity
// approximated from line/function counts rather than a real control-
// flow graph.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer constructs the default StaticAnalyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer { return &HeuristicAnalyzer{} }

func (a *HeuristicAnalyzer) Analyze(ctx context.Context, relPath string, content []byte) (StaticAnalysis, error) {
	ext := extensionOf(relPath)
	var out StaticAnalysis

	importRe := importRules[ext]
	funcRe := funcDeclRules[ext]
	exportedRe := exportedFuncRules[ext]

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	branches := 0
	for scanner.Scan() {
		lines++
		line := scanner.Text()

		if importRe != nil {
			if m := importRe.FindStringSubmatch(line); m != nil {
				name := firstNonEmpty(m[1:])
				if name != "" {
					out.Dependencies = append(out.Dependencies, models.Dependency{
						Name:     name,
						External: looksExternal(name),
						Kind:     models.DependencyKindImport,
					})
				}
			}
		}
		if funcRe != nil {
			if m := funcRe.FindStringSubmatch(line); m != nil {
				out.Complexity.FunctionCount++
				if exportedRe != nil {
					if em := exportedRe.FindStringSubmatch(line); em != nil {
						out.Interfaces = append(out.Interfaces, models.Interface{Name: em[1]})
					}
				}
			}
		}
		branches += branchWeight(line)
	}

	out.Complexity.LinesOfCode = lines
	out.Complexity.CyclomaticComplexity = 1 + branches
	return out, nil
}

func branchWeight(line string) int {
	weight := 0
	for _, kw := range []string{"if ", "if(", "for ", "for(", "case ", "&&", "||", "catch "} {
		weight += strings.Count(line, kw)
	}
	return weight
}

func looksExternal(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.Contains(name, "internal/")
}

func firstNonEmpty(candidates []string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}
