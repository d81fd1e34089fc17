package memory

import "testing"

type widget struct {
	Name string `json:"name"`
}

type gadget struct {
	Count int `json:"count"`
}

func TestStoreGetRoundTrip(t *testing.T) {
	m := New()
	if err := m.Store(ScopePreprocess, "thing", widget{Name: "hinge"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok := Get[widget](m, ScopePreprocess, "thing")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Name != "hinge" {
		t.Fatalf("got %+v", got)
	}
}

func TestScopeIsolation(t *testing.T) {
	m := New()
	if err := m.Store(ScopePreprocess, "k", widget{Name: "a"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok := Get[widget](m, ScopeResearch, "k"); ok {
		t.Fatalf("expected absent across scopes")
	}
}

func TestTypeProjectionMismatchIsAbsent(t *testing.T) {
	m := New()
	if err := m.Store(ScopePreprocess, "k", widget{Name: "a"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	// gadget has an incompatible shape (Count is required int, widget has no
	// "count" field) - json.Unmarshal of {"name":"a"} into gadget succeeds
	// with Count left as zero value, so instead verify a genuinely
	// incompatible shape: storing an array and reading as a struct.
	if err := m.Store(ScopePreprocess, "list", []int{1, 2, 3}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok := Get[widget](m, ScopePreprocess, "list"); ok {
		t.Fatalf("expected shape mismatch to be absent, not an error")
	}
}

func TestHasAndList(t *testing.T) {
	m := New()
	if m.Has(ScopePreprocess, "missing") {
		t.Fatalf("expected false for missing key")
	}
	_ = m.Store(ScopePreprocess, "a", widget{Name: "x"})
	_ = m.Store(ScopePreprocess, "b", widget{Name: "y"})
	if !m.Has(ScopePreprocess, "a") {
		t.Fatalf("expected true")
	}
	keys := m.List(ScopePreprocess)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

func TestUsageByScope(t *testing.T) {
	m := New()
	_ = m.Store(ScopePreprocess, "a", widget{Name: "x"})
	usage := m.UsageByScope()
	if usage[ScopePreprocess] <= 0 {
		t.Fatalf("expected positive usage, got %d", usage[ScopePreprocess])
	}
}

func TestAccessCountIncrements(t *testing.T) {
	m := New()
	_ = m.Store(ScopePreprocess, "a", widget{Name: "x"})
	if m.AccessCount(ScopePreprocess, "a") != 0 {
		t.Fatalf("expected zero access before any Get")
	}
	_, _ = Get[widget](m, ScopePreprocess, "a")
	_, _ = Get[widget](m, ScopePreprocess, "a")
	if m.AccessCount(ScopePreprocess, "a") != 2 {
		t.Fatalf("expected 2 accesses, got %d", m.AccessCount(ScopePreprocess, "a"))
	}
}
