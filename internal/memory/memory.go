// Package memory implements the scoped in-memory blackboard (C1) that
// carries results between pipeline stages. It is a many-reader,
// single-writer, typed key/value store partitioned by scope.
package memory

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Scope names the three data-flow partitions plus the timing partition.
type Scope string

const (
	ScopePreprocess    Scope = "PREPROCESS"
	ScopeResearch      Scope = "RESEARCH"
	ScopeDocumentation Scope = "DOCUMENTATION"
	ScopeTiming        Scope = "TIMING"
)

// entry holds one stored value plus its bookkeeping metadata.
type entry struct {
	raw         json.RawMessage
	createdAt   time.Time
	updatedAt   time.Time
	accessCount int64
	size        int64
}

// Memory is the scoped blackboard. Zero value is not usable; use New.
type Memory struct {
	mu     sync.RWMutex
	scopes map[Scope]map[string]*entry
}

// New creates an empty Memory instance. Memory has no persistence: it is
// created with the pipeline driver and dropped at pipeline end.
func New() *Memory {
	return &Memory{scopes: make(map[Scope]map[string]*entry)}
}

// Store serializes value into the scope:key slot, recording created_at on
// first write and updating updated_at on subsequent writes. Fails only if
// serialization fails.
func (m *Memory) Store(scope Scope, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory: serialize %s:%s: %w", scope, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.scopes[scope]
	if !ok {
		bucket = make(map[string]*entry)
		m.scopes[scope] = bucket
	}

	now := time.Now()
	if e, exists := bucket[key]; exists {
		e.raw = raw
		e.updatedAt = now
		e.size = int64(len(raw))
		return nil
	}
	bucket[key] = &entry{
		raw:       raw,
		createdAt: now,
		updatedAt: now,
		size:      int64(len(raw)),
	}
	return nil
}

// Get attempts to project the stored value onto T. It returns (zero, false)
// on missing key or shape mismatch — never an error, per spec §4.1.
func Get[T any](m *Memory, scope Scope, key string) (T, bool) {
	var zero T

	m.mu.RLock()
	bucket, ok := m.scopes[scope]
	if !ok {
		m.mu.RUnlock()
		return zero, false
	}
	e, ok := bucket[key]
	m.mu.RUnlock()
	if !ok {
		return zero, false
	}

	m.mu.Lock()
	e.accessCount++
	raw := e.raw
	m.mu.Unlock()

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false
	}
	return out, true
}

// List returns the keys stored within scope, scope prefix stripped (keys
// are stored unprefixed already, since scopes are separate maps).
func (m *Memory) List(scope Scope) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.scopes[scope]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	return keys
}

// Has reports existence without deserialization.
func (m *Memory) Has(scope Scope, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.scopes[scope]
	if !ok {
		return false
	}
	_, ok = bucket[key]
	return ok
}

// UsageByScope returns the aggregate serialized byte size per scope.
func (m *Memory) UsageByScope() map[Scope]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	usage := make(map[Scope]int64, len(m.scopes))
	for scope, bucket := range m.scopes {
		var total int64
		for _, e := range bucket {
			total += e.size
		}
		usage[scope] = total
	}
	return usage
}

// AccessCount reports how many times a key has been read, for tests and
// diagnostics. Returns 0 for a missing key.
func (m *Memory) AccessCount(scope Scope, key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.scopes[scope]
	if !ok {
		return 0
	}
	e, ok := bucket[key]
	if !ok {
		return 0
	}
	return e.accessCount
}
