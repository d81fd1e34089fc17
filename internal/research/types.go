// Package research implements the Research Orchestrator (C7): seven
// agents running against a fixed dependency DAG over the preprocess
// stage's output, producing the structured reports the compose stage
// renders into documentation.
package research

// Agent names double as the memory.ScopeResearch key each agent's
// output is stored under, matching the original AgentType enum's
// Display-trait keys re-expressed as lowercase identifiers.
const (
	AgentSystemContext = "system_context"
	AgentDomainModules = "domain_modules"
	AgentArchitecture  = "architecture"
	AgentWorkflows     = "workflows"
	AgentKeyModules    = "key_modules"
	AgentBoundaries    = "boundaries"
	AgentDatabase      = "database"
)

const researchCacheCategory = "research"

// boundaryPurposes is the file-purpose filter the boundaries agent
// applies to CODE_INSIGHTS, grounded on boundary_analyzer.rs's "Focus
// on Entry, Api, Controller, Config, Router type code".
var boundaryPurposes = map[string]bool{
	"entry":      true,
	"api":        true,
	"controller": true,
	"router":     true,
	"config":     true,
}
