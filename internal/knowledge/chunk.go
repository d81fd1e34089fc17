package knowledge

import (
	"regexp"
	"strings"

	"github.com/sopaco/deepwiki-rs/config"
)

var markdownHeaderRE = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)

// chunkText splits text per the configured strategy (spec §4.4):
// "semantic" splits at markdown headers or statement-terminating blank
// lines when no headers are present, "paragraph" splits on blank lines,
// and "fixed" uses a fixed-size window with configurable overlap.
func chunkText(text string, cfg config.ChunkingConfig) []string {
	switch cfg.Strategy {
	case "fixed":
		return chunkFixed(text, chunkSizeOrDefault(cfg.ChunkSize), cfg.ChunkOverlap)
	case "semantic":
		return chunkSemantic(text)
	case "paragraph", "":
		return chunkParagraph(text)
	default:
		return chunkParagraph(text)
	}
}

func chunkSizeOrDefault(size int) int {
	if size <= 0 {
		return 2000
	}
	return size
}

func chunkParagraph(text string) []string {
	raw := strings.Split(text, "\n\n")
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

// chunkSemantic splits at markdown header boundaries, preserving each
// header with the body that follows it up to the next header. When no
// headers are found it falls back to paragraph splitting, since a plain
// prose document has no structural boundary to preserve.
func chunkSemantic(text string) []string {
	locs := markdownHeaderRE.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return chunkParagraph(text)
	}

	var out []string
	for i, loc := range locs {
		start := loc[0]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		section := strings.TrimSpace(text[start:end])
		if section != "" {
			out = append(out, section)
		}
	}
	if locs[0][0] > 0 {
		preamble := strings.TrimSpace(text[:locs[0][0]])
		if preamble != "" {
			out = append([]string{preamble}, out...)
		}
	}
	return out
}

func chunkFixed(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
