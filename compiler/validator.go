package compiler

import (
	"fmt"
	"strings"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/nodetype"
)

// ValidatorOptions tunes validation policy.
type ValidatorOptions struct {
	// StrictCycles turns cycles through types that do not allow them into errors
	StrictCycles bool
}

// Validator checks Blueprints against a registry. It holds no mutable state.
type Validator struct {
	registry *nodetype.Registry
	opts     ValidatorOptions
}

// NewValidator creates a validator bound to reg.
func NewValidator(reg *nodetype.Registry, opts ValidatorOptions) *Validator {
	return &Validator{registry: reg, opts: opts}
}

// resolved is the subset of a Blueprint the graph checks operate on.
type resolved struct {
	ids   []string
	types map[string]string
	edges []blueprint.Edge
}

// Validate checks bp and returns every error and warning found.
func (v *Validator) Validate(bp *blueprint.Blueprint) ValidationResult {
	res := ValidationResult{Errors: []ValidationError{}, Warnings: []ValidationWarning{}}
	if bp == nil {
		res.addError(ValidationError{Code: CodeEmptyBlueprint, Message: "blueprint is required"})
		return res.finish()
	}

	v.checkRequired(bp, &res)
	if len(bp.Nodes) == 0 {
		res.addError(ValidationError{Code: CodeEmptyBlueprint, Message: "blueprint has no nodes"})
		return res.finish()
	}

	g := v.checkNodes(bp, &res)
	v.checkEdges(bp, g, &res)
	v.checkConnectivity(g, &res)
	v.checkCycles(g, &res)

	return res.finish()
}

func (v *Validator) checkRequired(bp *blueprint.Blueprint, res *ValidationResult) {
	if strings.TrimSpace(bp.OwnerID) == "" {
		res.addError(ValidationError{Code: CodeMissingField, Message: "owner_id is required", Field: "owner_id"})
	}
	if strings.TrimSpace(bp.Version) == "" {
		res.addError(ValidationError{Code: CodeMissingField, Message: "version is required", Field: "version"})
	}
	if bp.Name == "" {
		res.addWarning(ValidationWarning{Code: WarnMissingMetadata, Message: "blueprint has no name"})
	}
	if bp.Description == "" {
		res.addWarning(ValidationWarning{Code: WarnMissingMetadata, Message: "blueprint has no description"})
	}
}

func (v *Validator) checkNodes(bp *blueprint.Blueprint, res *ValidationResult) *resolved {
	g := &resolved{types: make(map[string]string, len(bp.Nodes))}

	for i, node := range bp.Nodes {
		ok := true
		if node.ID == "" {
			res.addError(ValidationError{
				Code:    CodeMissingField,
				Message: fmt.Sprintf("node at index %d has no id", i),
				Field:   "id",
			})
			ok = false
		}
		if node.Type == "" {
			res.addError(ValidationError{
				Code:    CodeMissingField,
				Message: fmt.Sprintf("node at index %d has no type", i),
				NodeID:  node.ID,
				Field:   "type",
			})
			ok = false
		}
		if node.ID != "" {
			if _, dup := g.types[node.ID]; dup {
				res.addError(ValidationError{
					Code:    CodeDuplicateID,
					Message: fmt.Sprintf("duplicate node id: %s", node.ID),
					NodeID:  node.ID,
				})
				ok = false
			} else {
				g.types[node.ID] = node.Type
				g.ids = append(g.ids, node.ID)
			}
		}
		if !ok {
			continue
		}

		inst := v.registry.ValidateInstance(node.Type, node.Config)
		for _, is := range inst.Errors {
			res.addError(ValidationError{
				Code:    is.Code,
				Message: is.Message,
				NodeID:  node.ID,
				Field:   is.Field,
			})
		}
		for _, is := range inst.Warnings {
			res.addWarning(ValidationWarning{
				Code:    is.Code,
				Message: is.Message,
				NodeID:  node.ID,
			})
		}
	}
	return g
}

func (v *Validator) checkEdges(bp *blueprint.Blueprint, g *resolved, res *ValidationResult) {
	for i, edge := range bp.Edges {
		if edge.ID == "" {
			res.addWarning(ValidationWarning{
				Code:    WarnMissingMetadata,
				Message: fmt.Sprintf("edge at index %d has no id", i),
			})
		}

		_, srcOK := g.types[edge.Source]
		_, dstOK := g.types[edge.Target]
		if !srcOK || !dstOK {
			var missing []string
			if !srcOK {
				missing = append(missing, fmt.Sprintf("source %q", edge.Source))
			}
			if !dstOK {
				missing = append(missing, fmt.Sprintf("target %q", edge.Target))
			}
			res.addError(ValidationError{
				Code:    CodeInvalidEdge,
				Message: fmt.Sprintf("edge %s references unknown %s", edgeLabel(edge, i), strings.Join(missing, " and ")),
				EdgeID:  edge.ID,
			})
			continue
		}
		g.edges = append(g.edges, edge)

		def, known := v.registry.Get(g.types[edge.Source])
		if known && !def.HasOutput(edge.Branch()) {
			res.addError(ValidationError{
				Code: CodeInvalidBranch,
				Message: fmt.Sprintf("edge %s uses branch %q but %s declares [%s]",
					edgeLabel(edge, i), edge.Branch(), def.Type, strings.Join(def.OutputNames(), ", ")),
				NodeID: edge.Source,
				EdgeID: edge.ID,
				Field:  "source_handle",
			})
		}
	}
}

func (v *Validator) checkConnectivity(g *resolved, res *ValidationResult) {
	if len(g.ids) < 2 {
		return
	}
	touched := make(map[string]bool, len(g.ids))
	for _, e := range g.edges {
		touched[e.Source] = true
		touched[e.Target] = true
	}
	for _, id := range g.ids {
		if !touched[id] {
			res.addWarning(ValidationWarning{
				Code:    WarnDisconnectedNode,
				Message: fmt.Sprintf("node %s is not connected to any other node", id),
				NodeID:  id,
			})
		}
	}
}

func (v *Validator) checkCycles(g *resolved, res *ValidationResult) {
	cycle := FindCycle(g.ids, g.edges)
	if cycle == nil {
		return
	}
	path := strings.Join(append(cycle, cycle[0]), " -> ")

	if v.opts.StrictCycles {
		blocked := false
		for _, id := range cycle {
			def, ok := v.registry.Get(g.types[id])
			if ok && def.Capabilities.AllowsCycles {
				continue
			}
			blocked = true
			res.addError(ValidationError{
				Code:    CodeCycleNotAllowed,
				Message: fmt.Sprintf("node %s (%s) cannot be part of a cycle: %s", id, g.types[id], path),
				NodeID:  id,
			})
		}
		if blocked {
			return
		}
	}

	res.addWarning(ValidationWarning{
		Code:    WarnCycleDetected,
		Message: fmt.Sprintf("workflow contains a cycle: %s", path),
		NodeID:  cycle[0],
	})
}

func (r *ValidationResult) addError(e ValidationError) {
	r.Errors = append(r.Errors, e)
}

func (r *ValidationResult) addWarning(w ValidationWarning) {
	r.Warnings = append(r.Warnings, w)
}

func (r ValidationResult) finish() ValidationResult {
	r.Valid = len(r.Errors) == 0
	return r
}

func edgeLabel(e blueprint.Edge, index int) string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("#%d", index)
}
