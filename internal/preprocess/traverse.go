package preprocess

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sopaco/deepwiki-rs/config"
)

// importantPathHints and importantNameHints mirror
// structure_extractor.rs's calculate_importance_scores path/name
// weighting.
var importantPathHints = []struct {
	substr string
	weight float64
}{
	{"src", 0.3}, {"lib", 0.3},
	{"config", 0.1}, {"setup", 0.1},
}

var importantNameHints = []struct {
	substr string
	weight float64
}{
	{"main", 0.2}, {"index", 0.2},
}

// sourceExtensions mirrors the file-type weighting branch of
// calculate_importance_scores: any of these is a "main programming
// language" file and receives the largest importance bump.
var sourceExtensions = map[string]bool{
	"go": true, "rs": true, "py": true, "java": true, "kt": true,
	"cpp": true, "c": true, "cc": true, "h": true, "hpp": true,
	"rb": true, "php": true, "swift": true, "dart": true, "cs": true,
	"js": true, "ts": true, "jsx": true, "tsx": true, "mjs": true, "cjs": true,
	"vue": true, "svelte": true,
}

// binaryExtensions is a denylist of extensions traversal never reads as
// text. structure_extractor.rs delegates this to an external
// is_binary_file_path helper not present in the retrieval pack; this
// list is a pragmatic Go-native stand-in.
var binaryExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "ico": true,
	"pdf": true, "zip": true, "tar": true, "gz": true, "woff": true,
	"woff2": true, "ttf": true, "eot": true, "so": true, "dylib": true,
	"dll": true, "exe": true, "bin": true, "wasm": true,
}

// Traverser walks a project root computing per-file and per-directory
// metadata, grounded on
// original_source/src/generator/preprocess/extractors/structure_extractor.rs.
type Traverser struct {
	cfg config.PreprocessConfig
}

// NewTraverser constructs a Traverser over the given preprocess config.
func NewTraverser(cfg config.PreprocessConfig) *Traverser {
	return &Traverser{cfg: cfg}
}

// Traverse walks root up to the configured max depth, skipping excluded
// and hidden directories/files and oversized or binary files, and
// returns the resulting ProjectStructure with importance scores filled
// in.
func (t *Traverser) Traverse(root string) (ProjectStructure, error) {
	projectName := filepath.Base(filepath.Clean(root))
	ps := ProjectStructure{
		ProjectName:      projectName,
		RootPath:         root,
		FileTypes:        map[string]int{},
		SizeDistribution: map[string]int{},
	}

	maxDepth := t.cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 12
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(os.PathSeparator))

		if info.IsDir() {
			if t.shouldIgnoreDir(info.Name()) {
				return filepath.SkipDir
			}
			if depth > maxDepth {
				return filepath.SkipDir
			}
			ps.Directories = append(ps.Directories, DirectoryInfo{
				Path: rel,
				Name: info.Name(),
			})
			return nil
		}

		if depth > maxDepth {
			return nil
		}
		if t.shouldIgnoreFile(info) {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(info.Name()), ".")
		fi := FileInfo{
			Path:      rel,
			Name:      info.Name(),
			Extension: ext,
			Size:      info.Size(),
		}
		ps.Files = append(ps.Files, fi)
		if ext != "" {
			ps.FileTypes[ext]++
		}
		ps.SizeDistribution[categorizeFileSize(info.Size())]++
		return nil
	})
	if err != nil {
		return ProjectStructure{}, err
	}

	t.scoreImportance(ps.Files)
	ps.TotalFiles = len(ps.Files)
	ps.TotalDirectories = len(ps.Directories)
	return ps, nil
}

func (t *Traverser) shouldIgnoreDir(name string) bool {
	lower := strings.ToLower(name)
	for _, excluded := range t.cfg.ExcludedDirs {
		if lower == strings.ToLower(excluded) {
			return true
		}
	}
	return strings.HasPrefix(name, ".")
}

func (t *Traverser) shouldIgnoreFile(info os.FileInfo) bool {
	name := info.Name()
	if strings.HasPrefix(name, ".") {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if binaryExtensions[ext] {
		return true
	}
	if t.cfg.MaxFileReadSize > 0 && info.Size() > t.cfg.MaxFileReadSize {
		return true
	}
	return false
}

func categorizeFileSize(size int64) string {
	switch {
	case size <= 1024:
		return "tiny"
	case size <= 10*1024:
		return "small"
	case size <= 100*1024:
		return "medium"
	case size <= 1024*1024:
		return "large"
	default:
		return "huge"
	}
}

// scoreImportance implements structure_extractor.rs's weighted-sum
// heuristic: location, filename, size-band, and extension each
// contribute an additive score clamped to [0,1].
func (t *Traverser) scoreImportance(files []FileInfo) {
	for i := range files {
		f := &files[i]
		var score float64
		pathLower := strings.ToLower(f.Path)
		for _, hint := range importantPathHints {
			if strings.Contains(pathLower, hint.substr) {
				score += hint.weight
			}
		}
		nameLower := strings.ToLower(f.Name)
		for _, hint := range importantNameHints {
			if strings.Contains(nameLower, hint.substr) {
				score += hint.weight
			}
		}
		if f.Size > 1024 && f.Size < 50*1024 {
			score += 0.2
		}
		if sourceExtensions[strings.ToLower(f.Extension)] {
			score += 0.3
		}
		if score > 1.0 {
			score = 1.0
		}
		f.ImportanceScore = score
	}
}
