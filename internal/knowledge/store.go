package knowledge

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/sopaco/deepwiki-rs/config"
	"github.com/sopaco/deepwiki-rs/internal/apperr"
)

const defaultMaxChunksPerLoad = 50

// Store is the Knowledge Store (C4). Documents are re-chunked and
// re-indexed into an in-memory bleve index on every Sync call; only the
// freshness metadata (mtimes, chunk counts, target-agent scoping) is
// persisted across process restarts, matching spec §4.4.
type Store struct {
	cfg        config.KnowledgeConfig
	categories map[string]config.KnowledgeCategory
	backend    metadataBackend
	index      bleve.Index
	logger     *log.Logger

	mu     sync.RWMutex
	meta   metadata
	chunks map[string][]Chunk // category -> chunks currently indexed
}

// New constructs a Store. The bleve index is always in-process/mem-only;
// the metadata backend is "file" (default) or "postgres".
func New(cfg config.KnowledgeConfig) (*Store, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("knowledge: bleve index: %w", err)
	}

	var backend metadataBackend
	switch cfg.MetadataBackend {
	case "", "file":
		backend = newFileMetadataBackend(cfg.CacheDir)
	case "postgres":
		pb, err := newPostgresMetadataBackend(cfg.Postgres, "")
		if err != nil {
			return nil, err
		}
		backend = pb
	default:
		return nil, fmt.Errorf("knowledge: unknown metadata_backend %q", cfg.MetadataBackend)
	}

	categories := make(map[string]config.KnowledgeCategory, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories[c.Name] = c
	}

	meta, err := backend.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}

	return &Store{
		cfg:        cfg,
		categories: categories,
		backend:    backend,
		index:      index,
		logger:     log.New(log.Writer(), "[KNOWLEDGE] ", log.LstdFlags),
		meta:       meta,
		chunks:     make(map[string][]Chunk),
	}, nil
}

// Sync re-scans every configured category's glob patterns, computing the
// symmetric difference against the cached path set and comparing mtimes
// for survivors, then re-chunks and re-indexes current content. It is
// idempotent: a second call with no filesystem changes produces a
// SyncReport with all-zero deltas.
func (s *Store) Sync(ctx context.Context) ([]SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]SyncReport, 0, len(s.cfg.Categories))
	for _, cat := range s.cfg.Categories {
		if err := ctx.Err(); err != nil {
			return nil, apperr.ErrCancelled
		}
		report, records, chunks, err := s.syncCategory(cat)
		if err != nil {
			return nil, err
		}
		s.meta.Categories[cat.Name] = records
		s.chunks[cat.Name] = chunks
		reports = append(reports, report)
	}

	s.meta.LastSynced = time.Now().UTC()
	if err := s.backend.save(s.meta); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return reports, nil
}

func (s *Store) syncCategory(cat config.KnowledgeCategory) (SyncReport, []fileRecord, []Chunk, error) {
	report := SyncReport{Category: cat.Name}

	currentPaths := expandPatterns(cat.Patterns)
	oldByPath := make(map[string]fileRecord, len(s.meta.Categories[cat.Name]))
	for _, r := range s.meta.Categories[cat.Name] {
		oldByPath[r.Path] = r
	}
	currentSet := make(map[string]bool, len(currentPaths))
	for _, p := range currentPaths {
		currentSet[p] = true
	}
	for oldPath := range oldByPath {
		if !currentSet[oldPath] {
			report.FilesRemoved++
		}
	}

	var records []fileRecord
	var allChunks []Chunk
	for _, path := range currentPaths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		mtime := info.ModTime().UTC()

		old, existed := oldByPath[path]
		switch {
		case !existed:
			report.FilesAdded++
		case mtime.After(old.Mtime):
			report.FilesUpdated++
		}

		text, err := os.ReadFile(path)
		if err != nil {
			s.logger.Printf("category=%s: read %s: %v", cat.Name, path, err)
			continue
		}

		pieces := chunkText(string(text), s.cfg.Chunking)
		chunkDocs := make([]Chunk, 0, len(pieces))
		for i, piece := range pieces {
			docID := fmt.Sprintf("%s::%s::%d", cat.Name, path, i)
			c := Chunk{
				DocID: docID, Category: cat.Name, Path: path, Text: piece,
				TargetAgents: cat.TargetAgents, Ordinal: i,
			}
			if err := s.index.Index(docID, c); err != nil {
				s.logger.Printf("category=%s: index %s: %v", cat.Name, docID, err)
				continue
			}
			chunkDocs = append(chunkDocs, c)
		}

		records = append(records, fileRecord{Path: path, Mtime: mtime, Chunks: len(chunkDocs), TargetAgents: cat.TargetAgents})
		allChunks = append(allChunks, chunkDocs...)
		report.ChunksTotal += len(chunkDocs)
	}

	return report, records, allChunks, nil
}

func expandPatterns(patterns []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

// LoadFor renders the formatted text blob for category, scoped to
// targetAgent when non-empty, per spec §4.4: a header (category display
// name, last-sync time, document count) followed by the concatenation of
// included chunks. When a category holds more chunks than MaxChunksPerLoad,
// a bleve BM25 query-string search over target-agent's name ranks chunks
// and only the top-ranked survive truncation.
func (s *Store) LoadFor(category, targetAgent string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.chunks[category]
	if !ok {
		return "", apperr.DependencyMissing("KNOWLEDGE", category)
	}

	var scoped []Chunk
	for _, c := range chunks {
		if len(c.TargetAgents) == 0 || targetAgent == "" || containsString(c.TargetAgents, targetAgent) {
			scoped = append(scoped, c)
		}
	}

	cap := s.cfg.MaxChunksPerLoad
	if cap <= 0 {
		cap = defaultMaxChunksPerLoad
	}
	if len(scoped) > cap {
		scoped = s.rankAndTruncate(category, targetAgent, scoped, cap)
	}

	paths := map[string]bool{}
	for _, c := range scoped {
		paths[c.Path] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", formatCategoryName(category))
	fmt.Fprintf(&b, "Last synced: %s\n", s.meta.LastSynced.Format(time.RFC3339))
	fmt.Fprintf(&b, "Documents: %d\n\n", len(paths))
	for i, c := range scoped {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(c.Text)
	}
	return b.String(), nil
}

func (s *Store) rankAndTruncate(category, targetAgent string, chunks []Chunk, limit int) []Chunk {
	queryText := category
	if targetAgent != "" {
		queryText = category + " " + targetAgent
	}
	query := bleve.NewQueryStringQuery(queryText)
	req := bleve.NewSearchRequestOptions(query, limit*3, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		s.logger.Printf("category=%s: bm25 rank failed, truncating by order: %v", category, err)
		if len(chunks) > limit {
			return chunks[:limit]
		}
		return chunks
	}

	byID := make(map[string]Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.DocID] = c
	}
	var ranked []Chunk
	for _, hit := range res.Hits {
		c, ok := byID[hit.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, c)
		if len(ranked) >= limit {
			break
		}
	}
	if len(ranked) == 0 {
		if len(chunks) > limit {
			return chunks[:limit]
		}
		return chunks
	}
	return ranked
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
