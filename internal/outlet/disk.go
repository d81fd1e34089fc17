// Package outlet implements the persistence collaborator that writes
// the compose stage's rendered documentation (and a companion run
// summary) to disk, grounded on generator/outlet/mod.rs.
package outlet

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sopaco/deepwiki-rs/internal/compose"
	"github.com/sopaco/deepwiki-rs/internal/memory"
)

// DiskOutlet persists every DocTree-registered documentation section to
// disk, grounded on outlet/mod.rs's DiskOutlet::save: wipe and recreate
// the output directory, then write one file per tree entry looked up
// from memory.ScopeDocumentation. A section whose editor never stored
// anything (e.g. it errored upstream and the driver chose to continue)
// is logged and skipped rather than failing the whole save, matching
// the original's "Warning: Document content not found" behavior.
type DiskOutlet struct {
	OutputDir string
	Logger    *log.Logger
}

// NewDiskOutlet constructs a DiskOutlet targeting dir.
func NewDiskOutlet(dir string) *DiskOutlet {
	return &DiskOutlet{
		OutputDir: dir,
		Logger:    log.New(log.Writer(), "[OUTLET] ", log.LstdFlags),
	}
}

// Save writes every entry of tree to OutputDir, reading rendered
// Markdown out of mem's DOCUMENTATION scope.
func (o *DiskOutlet) Save(mem *memory.Memory, tree *compose.DocTree) error {
	if err := os.RemoveAll(o.OutputDir); err != nil {
		return fmt.Errorf("outlet: clear output directory: %w", err)
	}
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return fmt.Errorf("outlet: create output directory: %w", err)
	}

	for _, key := range tree.Keys() {
		relPath, _ := tree.Get(key)
		content, ok := memory.Get[string](mem, memory.ScopeDocumentation, key)
		if !ok {
			o.logger().Printf("document content not found, key: %s", key)
			continue
		}

		outPath := filepath.Join(o.OutputDir, relPath)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("outlet: create directory for %q: %w", relPath, err)
		}
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("outlet: write %q: %w", relPath, err)
		}
		o.logger().Printf("document saved: %s", outPath)
	}
	return nil
}

func (o *DiskOutlet) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(log.Writer(), "[OUTLET] ", log.LstdFlags)
}
