package preprocess

import (
	"testing"

	"github.com/sopaco/deepwiki-rs/models"
)

func TestClassifyByRulesExtension(t *testing.T) {
	p, conf, ok := classifyByRules("db/schema.sql", "schema.sql")
	if !ok || p != models.PurposeDatabase || conf != 1.0 {
		t.Fatalf("got purpose=%v conf=%v ok=%v", p, conf, ok)
	}
}

func TestClassifyByRulesPath(t *testing.T) {
	p, _, ok := classifyByRules("internal/repository/user_repo.go", "user_repo.go")
	if !ok || p != models.PurposeRepository {
		t.Fatalf("got purpose=%v ok=%v", p, ok)
	}
}

func TestClassifyByRulesFilenameFallback(t *testing.T) {
	p, _, ok := classifyByRules("tool/main.go", "main.go")
	if !ok || p != models.PurposeEntry {
		t.Fatalf("got purpose=%v ok=%v", p, ok)
	}
}

func TestClassifyByRulesNoMatch(t *testing.T) {
	_, _, ok := classifyByRules("weird/path/thing.xyz", "thing.xyz")
	if ok {
		t.Fatal("expected no rule to match an unrecognized path/name")
	}
}

func TestClassifierWithoutExecutorFallsBackToUnknown(t *testing.T) {
	c := NewClassifier(nil, 0.7)
	purpose, conf := c.Classify(nil, "weird/path/thing.xyz", "thing.xyz", "")
	if purpose != models.PurposeUnknown || conf != 0 {
		t.Fatalf("got purpose=%v conf=%v", purpose, conf)
	}
}

func TestClassifierWithoutExecutorUsesRuleMatchEvenBelowThreshold(t *testing.T) {
	c := NewClassifier(nil, 0.95)
	purpose, conf := c.Classify(nil, "cmd/tool/main.go", "main.go", "")
	if purpose != models.PurposeEntry {
		t.Fatalf("got purpose=%v conf=%v", purpose, conf)
	}
}
