package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sopaco/deepwiki-rs/config"
)

func testManager(t *testing.T, expireHours int) *Manager {
	t.Helper()
	cfg := config.CacheConfig{
		Enabled:     true,
		Backend:     "disk",
		RootDir:     t.TempDir(),
		ExpireHours: expireHours,
	}
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestDigestDeterministic(t *testing.T) {
	d1 := Digest("hello world", "gpt-4o", 0.2)
	d2 := Digest("hello world", "gpt-4o", 0.2)
	if d1 != d2 {
		t.Fatalf("expected identical digests, got %s vs %s", d1, d2)
	}
	d3 := Digest("hello world", "gpt-4o", 0.3)
	if d1 == d3 {
		t.Fatalf("expected different digest for different temperature")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	m := testManager(t, 0)
	type payload struct {
		Summary string `json:"summary"`
	}
	want := payload{Summary: "ok"}
	if err := Set(m, "research", "prompt", "gpt-4o", 0.2, want, nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := Get[payload](m, "research", "prompt", "gpt-4o", 0.2)
	if !ok {
		t.Fatalf("expected hit")
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCacheMiss(t *testing.T) {
	m := testManager(t, 0)
	type payload struct{ Summary string }
	_, ok := Get[payload](m, "research", "nope", "gpt-4o", 0.2)
	if ok {
		t.Fatalf("expected miss")
	}
	reports := m.Report()
	if len(reports) != 1 || reports[0].Misses != 1 {
		t.Fatalf("expected one recorded miss, got %+v", reports)
	}
}

func TestExpirationRemovesEntryAndRecordsMiss(t *testing.T) {
	m := testManager(t, 1) // 1 hour TTL
	type payload struct{ Summary string }
	if err := Set(m, "research", "prompt", "gpt-4o", 0.2, payload{Summary: "ok"}, nil); err != nil {
		t.Fatalf("set: %v", err)
	}

	digest := Digest("prompt", "gpt-4o", 0.2)
	raw, ok, err := m.backend.read("research", digest)
	if err != nil || !ok {
		t.Fatalf("expected entry present before mutating created_at")
	}
	// Simulate age by rewriting created_at into the past.
	var entry Entry
	_ = json.Unmarshal(raw, &entry)
	entry.CreatedAt = entry.CreatedAt.Add(-2 * time.Hour)
	rewritten, _ := json.Marshal(entry)
	if err := m.backend.write("research", digest, rewritten); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	_, ok = Get[payload](m, "research", "prompt", "gpt-4o", 0.2)
	if ok {
		t.Fatalf("expected expired entry to miss")
	}
	if _, stillThere, _ := m.backend.read("research", digest); stillThere {
		t.Fatalf("expected expired entry to be removed")
	}
}
