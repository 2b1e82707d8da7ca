package compiler

import (
	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/nodetype"
)

// Blocking error codes.
const (
	CodeMissingField     = "missing_field"
	CodeEmptyBlueprint   = "empty_blueprint"
	CodeDuplicateID      = "duplicate_id"
	CodeInvalidEdge      = "invalid_edge"
	CodeUnknownType      = nodetype.CodeUnknownType
	CodeMissingParameter = nodetype.CodeMissingParameter
	CodeInvalidParameter = nodetype.CodeInvalidParameter
	CodeInvalidBranch    = "invalid_branch"
	CodeCycleNotAllowed  = "cycle_not_allowed"
	CodeCompilationError = "compilation_error"
)

// Warning codes.
const (
	WarnDisconnectedNode = "disconnected_node"
	WarnCycleDetected    = "cycle_detected"
	WarnUnknownParameter = nodetype.CodeUnknownParameter
	WarnMissingMetadata  = "missing_metadata"
)

// ValidationError is a blocking problem.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"node_id,omitempty"`
	EdgeID  string `json:"edge_id,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// ValidationWarning is advisory and never blocks compilation.
type ValidationWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"node_id,omitempty"`
	EdgeID  string `json:"edge_id,omitempty"`
}

// ValidationResult collects everything found while validating a Blueprint.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// HasError reports whether an error with code is present.
func (r ValidationResult) HasError(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// HasWarning reports whether a warning with code is present.
func (r ValidationResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// ConnectionTarget is one destination of a lane.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Connections maps source node id -> branch -> lanes -> targets.
type Connections map[string]map[string][][]ConnectionTarget

// Targets returns the first lane of src/branch as node ids.
func (c Connections) Targets(src, branch string) []string {
	lanes := c[src][branch]
	if len(lanes) == 0 {
		return nil
	}
	out := make([]string, len(lanes[0]))
	for i, t := range lanes[0] {
		out[i] = t.Node
	}
	return out
}

// CompiledNode is a node rendered into its target template.
type CompiledNode struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	NodeType    string             `json:"node_type"`
	Type        string             `json:"type"`
	TypeVersion float64            `json:"type_version"`
	Position    blueprint.Position `json:"position"`
	Parameters  map[string]any     `json:"parameters"`
	Credentials map[string]any     `json:"credentials,omitempty"`
}

// WorkflowMeta carries Blueprint provenance.
type WorkflowMeta struct {
	OwnerID     string `json:"owner_id"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// CompiledWorkflow is the engine-agnostic compilation output.
type CompiledWorkflow struct {
	Name        string         `json:"name"`
	Nodes       []CompiledNode `json:"nodes"`
	Connections Connections    `json:"connections"`
	Meta        WorkflowMeta   `json:"meta"`
}

// Node returns the compiled node with the given id.
func (w *CompiledWorkflow) Node(id string) (*CompiledNode, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// CompileOptions controls a single Compile call.
type CompileOptions struct {
	// ValidateOnly stops after validation
	ValidateOnly bool `json:"validate_only,omitempty"`
	// AutoLayout overrides node positions. nil means true.
	AutoLayout *bool `json:"auto_layout,omitempty"`
	// Optimize runs the configured optimizers
	Optimize bool `json:"optimize,omitempty"`
}

func (o CompileOptions) autoLayout() bool {
	return o.AutoLayout == nil || *o.AutoLayout
}

// Bool returns a pointer to b, for CompileOptions.AutoLayout.
func Bool(b bool) *bool {
	return &b
}

// Stats summarises a compilation.
type Stats struct {
	Nodes     int     `json:"nodes"`
	Edges     int     `json:"edges"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

// Result is returned by Compile.
type Result struct {
	Success    bool              `json:"success"`
	Workflow   *CompiledWorkflow `json:"workflow,omitempty"`
	Validation ValidationResult  `json:"validation"`
	Stats      Stats             `json:"stats"`
}

// Faulted reports whether the result carries a recovered compilation fault.
func (r *Result) Faulted() bool {
	return r.Validation.HasError(CodeCompilationError)
}
