package preprocess

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// topLevelDocumentNames are the files step 1 looks for at the project
// root, in priority order.
var topLevelDocumentNames = []string{
	"README.md", "readme.md", "README", "README.rst", "README.txt",
	"CONTRIBUTING.md", "ARCHITECTURE.md",
}

// ExtractOriginalDocuments implements preprocess step 1: it reads the
// repository's top-level documents, running any HTML-bearing ones
// through go-readability to strip markup/boilerplate (the teacher's own
// use of this dependency is for ingesting fetched web pages; here it
// normalizes documents that happen to embed raw HTML, while plain
// Markdown/text documents pass through unchanged since they are already
// in the normalized form the original expects).
func ExtractOriginalDocuments(root string) ([]OriginalDocument, error) {
	var docs []OriginalDocument
	for _, name := range topLevelDocumentNames {
		path := filepath.Join(root, name)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		text, title := normalizeDocument(path, content)
		docs = append(docs, OriginalDocument{Path: name, Title: title, Content: text})
	}
	return docs, nil
}

func normalizeDocument(path string, content []byte) (text, title string) {
	if !looksLikeHTML(content) {
		return string(content), ""
	}

	pageURL, _ := url.Parse("file://" + filepath.ToSlash(path))
	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err != nil {
		return string(content), ""
	}
	if article.TextContent != "" {
		return article.TextContent, article.Title
	}
	return string(content), article.Title
}

func looksLikeHTML(content []byte) bool {
	head := strings.ToLower(string(content[:min(len(content), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") || strings.Contains(head, "<body")
}
