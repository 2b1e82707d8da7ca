package nodetype

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/botflow/internal/maputil"
)

// Issue codes produced by ValidateInstance.
const (
	CodeUnknownType      = "unknown_type"
	CodeMissingParameter = "missing_parameter"
	CodeInvalidParameter = "invalid_parameter"
	CodeUnknownParameter = "unknown_parameter"
)

// Issue is a single contract violation found on a node instance.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// InstanceResult is the outcome of checking one node against its definition.
type InstanceResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Registry holds node type definitions keyed by type. It is read-only after
// NewRegistry returns and safe for concurrent use.
type Registry struct {
	defs        map[string]Definition
	order       []string
	fingerprint string
}

// NewRegistry builds a registry from defs. Empty or duplicate type keys are rejected.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for i, def := range defs {
		if strings.TrimSpace(def.Type) == "" {
			return nil, fmt.Errorf("definition %d: type is required", i)
		}
		if _, exists := r.defs[def.Type]; exists {
			return nil, fmt.Errorf("duplicate node type: %s", def.Type)
		}
		for _, in := range def.Inputs {
			if in.Name == "" {
				return nil, fmt.Errorf("node type %s: input name is required", def.Type)
			}
			if !in.Type.Valid() {
				return nil, fmt.Errorf("node type %s: input %s has unsupported type %q", def.Type, in.Name, in.Type)
			}
		}
		r.defs[def.Type] = def.Clone()
		r.order = append(r.order, def.Type)
	}

	sort.Slice(r.order, func(i, j int) bool {
		a, b := r.defs[r.order[i]], r.defs[r.order[j]]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Type < b.Type
	})

	fp, err := r.computeFingerprint()
	if err != nil {
		return nil, err
	}
	r.fingerprint = fp
	return r, nil
}

// Get returns a copy of the definition for nodeType.
func (r *Registry) Get(nodeType string) (Definition, bool) {
	def, ok := r.defs[nodeType]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// List returns all definitions sorted by category, then type.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t].Clone())
	}
	return out
}

// Types returns registered type keys in List order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Outputs returns the declared branch names of nodeType, or nil when unknown.
func (r *Registry) Outputs(nodeType string) []string {
	def, ok := r.defs[nodeType]
	if !ok {
		return nil
	}
	return def.OutputNames()
}

// Fingerprint is a stable hash of the registry contents.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}

// ValidateInstance checks a node config against the contract of nodeType.
//
// Required parameters must be present in config, declare a default or be set
// by the template. Dotted keys address nested fields and are only accepted for
// object or untyped parameters; they then count toward the parameter named by
// their first segment. Keys with an empty path segment are rejected. Keys whose
// first segment is not a declared input are reported as warnings.
func (r *Registry) ValidateInstance(nodeType string, config map[string]any) InstanceResult {
	def, ok := r.defs[nodeType]
	if !ok {
		return InstanceResult{Errors: []Issue{{
			Code:    CodeUnknownType,
			Message: fmt.Sprintf("unknown node type: %s", nodeType),
			Field:   "type",
		}}}
	}

	var res InstanceResult
	keys := sortedKeys(config)

	// present 只记录形状合法的嵌套键
	present := make(map[string]bool, len(config))
	var keyErrors []Issue
	for _, key := range keys {
		if !maputil.ValidPath(key) {
			keyErrors = append(keyErrors, Issue{
				Code:    CodeInvalidParameter,
				Message: fmt.Sprintf("parameter %q has an empty path segment", key),
				Field:   key,
			})
			continue
		}
		head := maputil.Head(key)
		if head == key {
			continue
		}
		if in, declared := def.Input(head); declared && !acceptsNested(in.Type) {
			keyErrors = append(keyErrors, Issue{
				Code:    CodeInvalidParameter,
				Message: fmt.Sprintf("parameter %s is %s and has no nested field %s", head, in.Type, key[len(head)+1:]),
				Field:   key,
			})
			continue
		}
		if config[key] != nil {
			present[head] = true
		}
	}

	for _, in := range def.Inputs {
		if v, exact := config[in.Name]; exact && v != nil {
			if err := checkValue(in, v); err != nil {
				res.Errors = append(res.Errors, Issue{
					Code:    CodeInvalidParameter,
					Message: fmt.Sprintf("parameter %s: %v", in.Name, err),
					Field:   in.Name,
				})
			}
			continue
		}
		if !in.Required || present[in.Name] || in.Default != nil {
			continue
		}
		if _, ok := maputil.GetPath(def.Template.Parameters, in.Name); ok {
			continue
		}
		res.Errors = append(res.Errors, Issue{
			Code:    CodeMissingParameter,
			Message: fmt.Sprintf("missing required parameter: %s", in.Name),
			Field:   in.Name,
		})
	}
	res.Errors = append(res.Errors, keyErrors...)

	for _, key := range keys {
		if !maputil.ValidPath(key) {
			continue
		}
		if _, declared := def.Input(maputil.Head(key)); declared {
			continue
		}
		res.Warnings = append(res.Warnings, Issue{
			Code:    CodeUnknownParameter,
			Message: fmt.Sprintf("parameter %s is not declared by %s", key, nodeType),
			Field:   key,
		})
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// acceptsNested reports whether dotted keys may address fields inside a
// parameter of type t.
func acceptsNested(t ParamType) bool {
	return t == "" || t == ParamObject || t == ParamAny
}

func (r *Registry) computeFingerprint() (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, t := range r.order {
		if err := enc.Encode(r.defs[t]); err != nil {
			return "", fmt.Errorf("failed to fingerprint node type %s: %w", t, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
