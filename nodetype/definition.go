package nodetype

import (
	"github.com/BaSui01/botflow/internal/maputil"
)

// DefaultOutput is the branch every non-terminal type exposes when it declares none.
const DefaultOutput = "main"

// ParamType is the declared value type of a node parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamObject  ParamType = "object"
	ParamArray   ParamType = "array"
	ParamAny     ParamType = "any"
)

// Valid reports whether t is a known parameter type. Empty means ParamAny.
func (t ParamType) Valid() bool {
	switch t {
	case "", ParamString, ParamNumber, ParamInteger, ParamBoolean, ParamObject, ParamArray, ParamAny:
		return true
	}
	return false
}

// ParamSpec describes one input parameter of a node type.
type ParamSpec struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type,omitempty" yaml:"type,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any     `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// OutputSpec declares a named output branch.
type OutputSpec struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Template is the execution-engine shape a node of this type compiles into.
type Template struct {
	TargetType  string         `json:"target_type" yaml:"target_type"`
	TypeVersion float64        `json:"type_version,omitempty" yaml:"type_version,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Credentials map[string]any `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// Capabilities are structural flags consulted by the validator.
type Capabilities struct {
	// AllowsCycles marks types that may legitimately sit on a loop
	AllowsCycles bool `json:"allows_cycles,omitempty" yaml:"allows_cycles,omitempty"`
	// Terminal types have no outputs
	Terminal bool `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	// Trigger types start a workflow
	Trigger bool `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Definition is a node type known to the registry.
type Definition struct {
	Type         string       `json:"type" yaml:"type"`
	Category     string       `json:"category" yaml:"category"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs       []ParamSpec  `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs      []OutputSpec `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Template     Template     `json:"template" yaml:"template"`
	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`
}

// Input returns the parameter spec with the given name.
func (d Definition) Input(name string) (ParamSpec, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return ParamSpec{}, false
}

// OutputNames returns the branches edges may originate from.
func (d Definition) OutputNames() []string {
	if d.Capabilities.Terminal {
		return []string{}
	}
	if len(d.Outputs) == 0 {
		return []string{DefaultOutput}
	}
	names := make([]string, len(d.Outputs))
	for i, o := range d.Outputs {
		names[i] = o.Name
	}
	return names
}

// HasOutput reports whether branch is a declared output.
func (d Definition) HasOutput(branch string) bool {
	for _, name := range d.OutputNames() {
		if name == branch {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the definition.
func (d Definition) Clone() Definition {
	out := d
	if d.Inputs != nil {
		out.Inputs = make([]ParamSpec, len(d.Inputs))
		for i, in := range d.Inputs {
			in.Default = maputil.CopyValue(in.Default)
			if in.Enum != nil {
				enum := make([]any, len(in.Enum))
				copy(enum, in.Enum)
				in.Enum = enum
			}
			out.Inputs[i] = in
		}
	}
	if d.Outputs != nil {
		out.Outputs = make([]OutputSpec, len(d.Outputs))
		copy(out.Outputs, d.Outputs)
	}
	out.Template.Parameters = maputil.DeepCopy(d.Template.Parameters)
	out.Template.Credentials = maputil.DeepCopy(d.Template.Credentials)
	return out
}
