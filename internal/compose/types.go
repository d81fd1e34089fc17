// Package compose implements the Compose Orchestrator (C8): the six
// editors that render the research stage's reports into documentation
// sections, sequenced exactly like
// generator/compose/mod.rs::DocumentationComposer::execute.
package compose

// Section names double as the ScopeDocumentation key each editor's
// rendered Markdown is stored under (the per-domain key_modules
// editors additionally suffix ":<module>").
const (
	SectionOverview     = "overview"
	SectionArchitecture = "architecture"
	SectionWorkflow     = "workflow"
	SectionKeyModules   = "key_modules"
	SectionBoundary     = "boundary"
	SectionDatabase     = "database"
)

const composeCacheCategory = "compose"
