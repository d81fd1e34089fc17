// Command wikigen generates C4-style architectural documentation for a
// source repository. Its command tree follows the teacher's cmd/root.go:
// a bare cobra root wired up from small per-command constructors.
package main

import (
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{Use: "wikigen", Short: "Generate architectural documentation from a source repository"}
	root.AddCommand(generateCmd(), syncKnowledgeCmd(), cacheCmd(), serveCmd(), watchCmd())
	_ = root.Execute()
}
