package preprocess

import (
	"context"
	"fmt"
	"strings"

	"github.com/sopaco/deepwiki-rs/internal/agent"
	"github.com/sopaco/deepwiki-rs/models"
)

// pathRule and nameRule classify by substring match against the
// lowercased relative path / filename, in priority order. Grounded on
// original_source/src/types/code.rs's CodePurposeMapper::
// map_by_path_and_name, re-expressed against this repo's Purpose
// taxonomy (models.go) rather than the original's Page/Widget/Dao set.
var pathRules = []struct {
	substrs []string
	purpose models.Purpose
}{
	{[]string{"/database/", "/db/", "/storage/"}, models.PurposeDatabase},
	{[]string{"/repository/", "/dao/", "/persistence/"}, models.PurposeRepository},
	{[]string{"/controller/", "/controllers/"}, models.PurposeController},
	{[]string{"/service/", "/services/"}, models.PurposeService},
	{[]string{"/models/", "/entities/"}, models.PurposeModel},
	{[]string{"/config/", "/configs/", "/settings/"}, models.PurposeConfig},
	{[]string{"/utils/", "/utilities/", "/helpers/"}, models.PurposeUtility},
	{[]string{"/middleware/", "/middlewares/"}, models.PurposeMiddleware},
	{[]string{"/router/", "/routes/", "/routing/"}, models.PurposeRouter},
	{[]string{"/api/", "/endpoint/"}, models.PurposeAPI},
	{[]string{"/view/", "/views/", "/pages/", "/screens/"}, models.PurposeView},
	{[]string{"/schema/", "/schemas/"}, models.PurposeSchema},
	{[]string{"/test/", "/tests/", "/__tests__/"}, models.PurposeTest},
	{[]string{"/docs/", "/doc/", "/documentation/"}, models.PurposeDocumentation},
	{[]string{"/cmd/", "/cli/"}, models.PurposeCLI},
	{[]string{"/worker/", "/workers/", "/jobs/"}, models.PurposeWorker},
	{[]string{"/client/", "/clients/"}, models.PurposeClient},
	{[]string{"/build/", "/scripts/"}, models.PurposeBuild},
	{[]string{"/infra/", "/infrastructure/", "/deploy/"}, models.PurposeInfrastructure},
	{[]string{"/handler/", "/handlers/", "/events/"}, models.PurposeEventHandler},
}

var nameRules = []struct {
	substrs []string
	purpose models.Purpose
}{
	{[]string{"main", "index", "app"}, models.PurposeEntry},
	{[]string{"controller"}, models.PurposeController},
	{[]string{"service"}, models.PurposeService},
	{[]string{"repository", "repo"}, models.PurposeRepository},
	{[]string{"model", "entity"}, models.PurposeModel},
	{[]string{"config", "settings"}, models.PurposeConfig},
	{[]string{"util", "helper"}, models.PurposeUtility},
	{[]string{"_test", "test_"}, models.PurposeTest},
	{[]string{"middleware"}, models.PurposeMiddleware},
	{[]string{"router", "routes"}, models.PurposeRouter},
	{[]string{"schema", "migration"}, models.PurposeSchema},
}

var extensionRules = map[string]models.Purpose{
	"sql": models.PurposeDatabase, "sqlproj": models.PurposeDatabase,
	"md": models.PurposeDocumentation,
}

// classifyByRules applies the closed ordered rule set: extension, then
// path substrings, then filename substrings. Returns (purpose, conf,
// true) on a match, with conf 1.0 for an extension rule, 0.9 for a path
// rule and 0.75 for a filename rule; (PurposeUnknown, 0, false) when no rule fires, at
// which point the caller decides whether to escalate to the LLM
// fallback.
func classifyByRules(path, name string) (models.Purpose, float64, bool) {
	ext := strings.ToLower(strings.TrimPrefix(extOf(name), "."))
	if p, ok := extensionRules[ext]; ok {
		return p, 1.0, true
	}

	pathLower := "/" + strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	for _, rule := range pathRules {
		for _, s := range rule.substrs {
			if strings.Contains(pathLower, s) {
				return rule.purpose, 0.9, true
			}
		}
	}

	nameLower := strings.ToLower(name)
	for _, rule := range nameRules {
		for _, s := range rule.substrs {
			if strings.Contains(nameLower, s) {
				return rule.purpose, 0.75, true
			}
		}
	}

	return models.PurposeUnknown, 0, false
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx:]
}

type purposeGuess struct {
	Purpose    string  `json:"purpose"`
	Confidence float64 `json:"confidence"`
}

// classificationCacheCategory groups the LLM-fallback classification
// calls in the response cache and in per-category metrics.
const classificationCacheCategory = "preprocess"

// Classifier resolves a file's Purpose tag, falling back to an LLM call
// when the rule-based classifier either doesn't fire or produces
// confidence below the configured threshold (spec §4.6 step 3).
type Classifier struct {
	executor            *agent.Executor
	confidenceThreshold float64
}

// NewClassifier constructs a Classifier. executor may be nil, in which
// case classification never escalates past the rule-based pass
// (unmatched files are tagged PurposeUnknown).
func NewClassifier(executor *agent.Executor, confidenceThreshold float64) *Classifier {
	if confidenceThreshold <= 0 {
		confidenceThreshold = 0.7
	}
	return &Classifier{executor: executor, confidenceThreshold: confidenceThreshold}
}

// Classify returns a purpose and confidence for the given file, calling
// the LLM fallback only when the rule pass under-matches.
func (c *Classifier) Classify(ctx context.Context, path, name, snippet string) (models.Purpose, float64) {
	purpose, confidence, matched := classifyByRules(path, name)
	if matched && confidence >= c.confidenceThreshold {
		return purpose, confidence
	}
	if c.executor == nil {
		if matched {
			return purpose, confidence
		}
		return models.PurposeUnknown, 0
	}

	guess, err := c.classifyWithLLM(ctx, path, name, snippet)
	if err != nil {
		if matched {
			return purpose, confidence
		}
		return models.PurposeUnknown, 0
	}
	return guess, c.confidenceThreshold
}

func (c *Classifier) classifyWithLLM(ctx context.Context, path, name, snippet string) (models.Purpose, error) {
	base := agent.Base{
		Name: "purpose_classifier",
		OpeningSection: fmt.Sprintf(
			"Classify the purpose of the source file %q (base name %q) into exactly one of the following tags: %s.",
			path, name, joinPurposes(models.AllPurposes)),
		ClosingSection: "Respond with the single best-fitting tag and your confidence in it.",
		Inputs: []agent.Input{
			agent.StaticInput("FILE_SNIPPET", snippet, false),
		},
		OutputScope: "PREPROCESS",
		OutputKey:   "purpose_classifier_scratch",
	}

	result, err := agent.RunExtract[purposeGuess](ctx, c.executor, classificationCacheCategory, base, nil)
	if err != nil {
		return models.PurposeUnknown, err
	}
	for _, p := range models.AllPurposes {
		if string(p) == strings.ToLower(strings.TrimSpace(result.Purpose)) {
			return p, nil
		}
	}
	return models.PurposeUnknown, nil
}

func joinPurposes(purposes []models.Purpose) string {
	names := make([]string, len(purposes))
	for i, p := range purposes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
