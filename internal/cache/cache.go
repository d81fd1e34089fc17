// Package cache implements the content-addressed Response Cache (C2): a
// persistent cache of LLM completions keyed by a digest of the normalized
// prompt, model id, and temperature, with lazy TTL expiration and atomic
// hit/miss/write/error metrics.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/sopaco/deepwiki-rs/config"
)

// TokenUsage records the token counts associated with a cached completion.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Entry is the on-disk/on-wire shape of a cached completion.
type Entry struct {
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
	PromptDigest string          `json:"prompt_digest"`
	TokenUsage   *TokenUsage     `json:"token_usage,omitempty"`
	ModelID      string          `json:"model_id,omitempty"`
}

// categoryMetrics holds atomic counters for one cache category.
type categoryMetrics struct {
	hits   atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
	errors atomic.Int64

	tokensSavedIn  atomic.Int64
	tokensSavedOut atomic.Int64
}

// Manager is the Response Cache. It is safe for concurrent use: each
// category's counters are lock-free atomics once created, a mutex only
// guards the rarely-mutated category-name-to-counters map itself, and
// file writes are atomic write-then-rename with one file per digest (no
// filesystem locking).
type Manager struct {
	cfg     config.CacheConfig
	backend backend
	logger  *log.Logger

	metricsMu sync.RWMutex
	metrics   map[string]*categoryMetrics
}

// backend abstracts the storage layer so a disk-backed cache and a
// Redis-backed cache (SPEC_FULL.md §2 domain-stack wiring) share one
// Manager implementation.
type backend interface {
	read(category, digest string) ([]byte, bool, error)
	write(category, digest string, data []byte) error
	remove(category, digest string) error
}

// New constructs a Manager using the configured backend ("disk" or "redis").
func New(cfg config.CacheConfig) (*Manager, error) {
	var b backend
	switch cfg.Backend {
	case "", "disk":
		b = &diskBackend{rootDir: cfg.RootDir}
	case "redis":
		rb, err := newRedisBackend(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("cache: redis backend: %w", err)
		}
		b = rb
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
	return &Manager{
		cfg:     cfg,
		backend: b,
		logger:  log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
		metrics: make(map[string]*categoryMetrics),
	}, nil
}

func (m *Manager) metricsFor(category string) *categoryMetrics {
	m.metricsMu.RLock()
	cm, ok := m.metrics[category]
	m.metricsMu.RUnlock()
	if ok {
		return cm
	}

	m.metricsMu.Lock()
	defer m.metricsMu.Unlock()
	if cm, ok := m.metrics[category]; ok {
		return cm
	}
	cm = &categoryMetrics{}
	m.metrics[category] = cm
	return cm
}

// Digest computes the deterministic content hash of the normalized prompt
// plus model id plus temperature. Identical inputs yield identical
// digests across processes (spec §3 invariant).
func Digest(prompt, modelID string, temperature float64) string {
	h := sha3.New256()
	fmt.Fprintf(h, "%s\x00%s\x00%.4f", normalizePrompt(prompt), modelID, temperature)
	return hex.EncodeToString(h.Sum(nil))
}

func normalizePrompt(prompt string) string {
	// Collapse trailing whitespace so equivalent prompts hash identically;
	// the normalization is intentionally shallow since the spec requires
	// determinism, not canonicalization of arbitrary whitespace runs.
	return strings.TrimRight(prompt, " \t\r\n")
}

// Get returns the cached value for (category, prompt, model, temperature).
// Absent on miss, expiration, or decode failure; expired entries are
// removed as a side effect. Every outcome records the matching metric.
func Get[T any](m *Manager, category, prompt, modelID string, temperature float64) (T, bool) {
	var zero T
	if !m.cfg.Enabled {
		return zero, false
	}
	digest := Digest(prompt, modelID, temperature)
	cm := m.metricsFor(category)

	raw, ok, err := m.backend.read(category, digest)
	if err != nil {
		cm.errors.Add(1)
		m.logger.Printf("read error category=%s digest=%s: %v", category, digest, err)
		return zero, false
	}
	if !ok {
		cm.misses.Add(1)
		return zero, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		cm.errors.Add(1)
		_ = m.backend.remove(category, digest)
		return zero, false
	}

	if m.expired(entry.CreatedAt) {
		cm.misses.Add(1)
		_ = m.backend.remove(category, digest)
		return zero, false
	}

	var out T
	if err := json.Unmarshal(entry.Payload, &out); err != nil {
		cm.errors.Add(1)
		return zero, false
	}

	cm.hits.Add(1)
	if entry.TokenUsage != nil {
		cm.tokensSavedIn.Add(entry.TokenUsage.InputTokens)
		cm.tokensSavedOut.Add(entry.TokenUsage.OutputTokens)
	}
	return out, true
}

func (m *Manager) expired(createdAt time.Time) bool {
	if m.cfg.ExpireHours <= 0 {
		return false
	}
	return time.Since(createdAt) > time.Duration(m.cfg.ExpireHours)*time.Hour
}

// Set writes value under (category, prompt, model, temperature), recording
// a write event. A nil tokenUsage is permitted.
func Set[T any](m *Manager, category, prompt, modelID string, temperature float64, value T, tokenUsage *TokenUsage) error {
	if !m.cfg.Enabled {
		return nil
	}
	digest := Digest(prompt, modelID, temperature)
	cm := m.metricsFor(category)

	payload, err := json.Marshal(value)
	if err != nil {
		cm.errors.Add(1)
		return fmt.Errorf("cache: marshal payload: %w", err)
	}

	entry := Entry{
		Payload:      payload,
		CreatedAt:    time.Now(),
		PromptDigest: digest,
		TokenUsage:   tokenUsage,
		ModelID:      modelID,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		cm.errors.Add(1)
		return fmt.Errorf("cache: marshal entry: %w", err)
	}

	if err := m.backend.write(category, digest, raw); err != nil {
		cm.errors.Add(1)
		return fmt.Errorf("cache: write: %w", err)
	}
	cm.writes.Add(1)
	return nil
}

// CategoryReport summarizes one category's cache metrics.
type CategoryReport struct {
	Category  string
	Hits      int64
	Misses    int64
	Writes    int64
	Errors    int64
	HitRate   float64
	CostSaved float64
}

// Report produces the SummaryReport contribution for the response cache,
// including the estimated cost saving per spec §4.2:
// Σ(hits × (input_tokens*price_in + output_tokens*price_out)), computed
// from the token counts actually recorded on each hit rather than a flat
// per-hit estimate.
func (m *Manager) Report() []CategoryReport {
	m.metricsMu.RLock()
	defer m.metricsMu.RUnlock()
	reports := make([]CategoryReport, 0, len(m.metrics))
	for category, cm := range m.metrics {
		hits := cm.hits.Load()
		misses := cm.misses.Load()
		total := hits + misses
		var hitRate float64
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		price := m.cfg.ModelPriceTable[category]
		tokensIn := cm.tokensSavedIn.Load()
		tokensOut := cm.tokensSavedOut.Load()
		costSaved := float64(tokensIn)*price.InputPer1K/1000.0 + float64(tokensOut)*price.OutputPer1K/1000.0
		reports = append(reports, CategoryReport{
			Category:  category,
			Hits:      hits,
			Misses:    misses,
			Writes:    cm.writes.Load(),
			Errors:    cm.errors.Load(),
			HitRate:   hitRate,
			CostSaved: costSaved,
		})
	}
	return reports
}

// diskBackend stores one JSON file per digest under rootDir/category/.
type diskBackend struct {
	rootDir string
}

func (d *diskBackend) path(category, digest string) string {
	return filepath.Join(d.rootDir, category, digest+".json")
}

func (d *diskBackend) read(category, digest string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.path(category, digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (d *diskBackend) write(category, digest string, data []byte) error {
	dir := filepath.Join(d.rootDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	final := d.path(category, digest)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

func (d *diskBackend) remove(category, digest string) error {
	err := os.Remove(d.path(category, digest))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
