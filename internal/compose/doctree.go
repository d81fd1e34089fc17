package compose

import "sort"

// DocTree maps a logical documentation key to the relative output path
// it should be rendered to, grounded on outlet::DocTree's insert API
// (referenced by key_modules_insight_editor.rs to register one file per
// analyzed domain). The pipeline driver (C9) walks this map to decide
// what the persistence layer writes beyond the fixed-name sections.
type DocTree struct {
	entries map[string]string
}

// NewDocTree constructs an empty tree.
func NewDocTree() *DocTree {
	return &DocTree{entries: make(map[string]string)}
}

// Insert records that the documentation stored under key should be
// written to path.
func (t *DocTree) Insert(key, path string) {
	t.entries[key] = path
}

// Get returns the path registered for key, if any.
func (t *DocTree) Get(key string) (string, bool) {
	p, ok := t.entries[key]
	return p, ok
}

// Keys returns every registered key in sorted order.
func (t *DocTree) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
