package compiler

import (
	"context"
)

// Optimizer is a best-effort transform run on a compiled workflow when
// CompileOptions.Optimize is set. An error aborts compilation as a fault.
type Optimizer interface {
	Name() string
	Optimize(ctx context.Context, wf *CompiledWorkflow) error
}

// OptimizerFunc adapts a function to Optimizer.
type OptimizerFunc struct {
	ID string
	Fn func(ctx context.Context, wf *CompiledWorkflow) error
}

func (o OptimizerFunc) Name() string { return o.ID }

func (o OptimizerFunc) Optimize(ctx context.Context, wf *CompiledWorkflow) error {
	return o.Fn(ctx, wf)
}

// PruneEmptyCredentials removes nil or empty credential maps so the target
// engine does not see placeholder entries.
var PruneEmptyCredentials Optimizer = OptimizerFunc{
	ID: "prune_empty_credentials",
	Fn: func(_ context.Context, wf *CompiledWorkflow) error {
		for i := range wf.Nodes {
			if len(wf.Nodes[i].Credentials) == 0 {
				wf.Nodes[i].Credentials = nil
			}
		}
		return nil
	},
}
