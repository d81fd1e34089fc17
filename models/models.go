// Package models holds the domain value types shared across the
// preprocess, research, and compose stages: the CodeInsight produced by
// the static-analyzer collaborator, and the structured report shapes
// the research agents extract and the compose editors render.
package models

// Purpose is one tag of the closed file-purpose taxonomy used to
// classify a source file during preprocessing.
type Purpose string

const (
	PurposeEntry          Purpose = "entry"
	PurposeController     Purpose = "controller"
	PurposeService        Purpose = "service"
	PurposeRepository     Purpose = "repository"
	PurposeModel          Purpose = "model"
	PurposeConfig         Purpose = "config"
	PurposeUtility        Purpose = "utility"
	PurposeTest           Purpose = "test"
	PurposeDatabase       Purpose = "database"
	PurposeAPI            Purpose = "api"
	PurposeRouter         Purpose = "router"
	PurposeMiddleware     Purpose = "middleware"
	PurposeView           Purpose = "view"
	PurposeSchema         Purpose = "schema"
	PurposeDocumentation  Purpose = "documentation"
	PurposeBuild          Purpose = "build"
	PurposeInfrastructure Purpose = "infrastructure"
	PurposeCLI            Purpose = "cli"
	PurposeClient         Purpose = "client"
	PurposeWorker         Purpose = "worker"
	PurposeEventHandler   Purpose = "event_handler"
	PurposeMiscellaneous  Purpose = "miscellaneous"
	PurposeUnknown        Purpose = "unknown"
)

// AllPurposes enumerates the closed taxonomy for validation and for the
// rule-based classifier's fallback ordering.
var AllPurposes = []Purpose{
	PurposeEntry, PurposeController, PurposeService, PurposeRepository,
	PurposeModel, PurposeConfig, PurposeUtility, PurposeTest, PurposeDatabase,
	PurposeAPI, PurposeRouter, PurposeMiddleware, PurposeView, PurposeSchema,
	PurposeDocumentation, PurposeBuild, PurposeInfrastructure, PurposeCLI,
	PurposeClient, PurposeWorker, PurposeEventHandler, PurposeMiscellaneous,
	PurposeUnknown,
}

// DependencyKind classifies how one file refers to another.
type DependencyKind string

const (
	DependencyKindImport  DependencyKind = "import"
	DependencyKindCall    DependencyKind = "call"
	DependencyKindInherit DependencyKind = "inherit"
	DependencyKindCompose DependencyKind = "compose"
)

// Dependency is one outbound reference from a file.
type Dependency struct {
	Name         string         `json:"name"`
	ResolvedPath string         `json:"resolved_path,omitempty"`
	External     bool           `json:"external"`
	Kind         DependencyKind `json:"kind"`
}

// Interface is one declared public interface/export of a file.
type Interface struct {
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
}

// ComplexityMetrics summarizes a file's static complexity.
type ComplexityMetrics struct {
	LinesOfCode          int `json:"lines_of_code"`
	CyclomaticComplexity int `json:"cyclomatic_complexity"`
	FunctionCount        int `json:"function_count"`
}

// CodeInsight is the per-file analysis record produced by the
// preprocess stage, combining the static analyzer's opaque output with
// the purpose classifier and, where confidence warrants it, an LLM
// pass.
type CodeInsight struct {
	Path                  string            `json:"path"`
	ImportanceScore       float64           `json:"importance_score"`
	Purpose               Purpose           `json:"purpose"`
	PurposeConfidence     float64           `json:"purpose_confidence"`
	Interfaces            []Interface       `json:"interfaces,omitempty"`
	Dependencies          []Dependency      `json:"dependencies,omitempty"`
	Complexity            ComplexityMetrics `json:"complexity"`
	ResponsibilitySummary string            `json:"responsibility_summary,omitempty"`
}

// ModuleGroup clusters related files discovered during relationship
// analysis.
type ModuleGroup struct {
	Name        string   `json:"name"`
	Files       []string `json:"files"`
	Description string   `json:"description,omitempty"`
}

// RelationshipAnalysis is the project-level aggregate the preprocess
// stage produces from the full CodeInsight set.
type RelationshipAnalysis struct {
	Summary             string        `json:"summary"`
	ModuleGroups        []ModuleGroup `json:"module_groups"`
	KeyDependencyChains []string      `json:"key_dependency_chains,omitempty"`
}

// SystemContextReport is the system_context research agent's output.
type SystemContextReport struct {
	Summary         string   `json:"summary"`
	Purpose         string   `json:"purpose"`
	Actors          []string `json:"actors,omitempty"`
	ExternalSystems []string `json:"external_systems,omitempty"`
}

// DomainModule is one logical grouping identified by the domain_modules
// research agent.
type DomainModule struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Files       []string `json:"files,omitempty"`
}

// DomainModulesReport is the domain_modules research agent's output.
type DomainModulesReport struct {
	Modules []DomainModule `json:"modules"`
}

// ArchitectureReport is the architecture research agent's output.
type ArchitectureReport struct {
	Summary        string   `json:"summary"`
	Layers         []string `json:"layers,omitempty"`
	Patterns       []string `json:"patterns,omitempty"`
	DiagramMermaid string   `json:"diagram_mermaid,omitempty"`
}

// WorkflowStep is one step of a named workflow.
type WorkflowStep struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Workflow is one end-to-end flow through the system.
type Workflow struct {
	Name  string         `json:"name"`
	Steps []WorkflowStep `json:"steps"`
}

// WorkflowReport is the workflows research agent's output.
type WorkflowReport struct {
	Workflows []Workflow `json:"workflows"`
}

// KeyModuleReport is one key_modules fan-out agent's output, produced
// once per detected module.
type KeyModuleReport struct {
	Module           string   `json:"module"`
	Summary          string   `json:"summary"`
	KeyFiles         []string `json:"key_files,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// BoundaryInterface is one externally-facing file surfaced by the
// boundaries research agent.
type BoundaryInterface struct {
	Path        string  `json:"path"`
	Purpose     Purpose `json:"purpose"`
	Description string  `json:"description,omitempty"`
}

// BoundaryReport is the boundaries research agent's output.
type BoundaryReport struct {
	Interfaces []BoundaryInterface `json:"interfaces"`
}

// DatabaseTable is one schema table surfaced by the database research
// agent.
type DatabaseTable struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []string `json:"columns,omitempty"`
}

// DatabaseReport is the database research agent's output, produced only
// when the conditional trigger in spec §4.7 fires.
type DatabaseReport struct {
	Summary string          `json:"summary"`
	Tables  []DatabaseTable `json:"tables"`
}
