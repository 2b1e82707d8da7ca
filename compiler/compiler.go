package compiler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/internal/maputil"
	"github.com/BaSui01/botflow/nodetype"
)

const connectionType = "main"

// Compiler compiles Blueprints. It is safe for concurrent use; the registry,
// logger and observer it holds are read-only.
type Compiler struct {
	registry     *nodetype.Registry
	validator    *Validator
	logger       *zap.Logger
	observer     Observer
	layout       LayoutConfig
	strictCycles bool
	optimizers   []Optimizer
	instruments  *instruments
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the compile observer.
func WithObserver(o Observer) Option {
	return func(c *Compiler) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLayout overrides the auto-layout geometry.
func WithLayout(cfg LayoutConfig) Option {
	return func(c *Compiler) { c.layout = cfg }
}

// WithStrictCycles makes cycles through non-looping node types blocking.
func WithStrictCycles(strict bool) Option {
	return func(c *Compiler) { c.strictCycles = strict }
}

// WithOptimizers sets the transforms run when CompileOptions.Optimize is true.
func WithOptimizers(opts ...Optimizer) Option {
	return func(c *Compiler) { c.optimizers = append(c.optimizers, opts...) }
}

// New creates a compiler over reg. A nil registry knows no types.
func New(reg *nodetype.Registry, opts ...Option) *Compiler {
	if reg == nil {
		reg, _ = nodetype.NewRegistry()
	}
	c := &Compiler{
		registry: reg,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		layout:   DefaultLayoutConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "compiler"))
	c.validator = NewValidator(reg, ValidatorOptions{StrictCycles: c.strictCycles})
	c.instruments = newInstruments()
	return c
}

// Registry returns the registry the compiler was built with.
func (c *Compiler) Registry() *nodetype.Registry {
	return c.registry
}

// Validate runs validation only.
func (c *Compiler) Validate(bp *blueprint.Blueprint) ValidationResult {
	return c.validator.Validate(bp)
}

// Compile validates and compiles bp. It never panics; faults after validation
// are returned as a failed Result carrying a compilation_error.
func (c *Compiler) Compile(ctx context.Context, bp *blueprint.Blueprint, opts CompileOptions) *Result {
	start := time.Now()
	var nodes, edges int
	if bp != nil {
		nodes, edges = len(bp.Nodes), len(bp.Edges)
	}
	ctx, span := c.instruments.start(ctx, nodes, edges, opts)

	res, status := c.compile(ctx, bp, opts)

	elapsed := time.Since(start)
	res.Stats.ElapsedMs = float64(elapsed.Microseconds()) / 1000
	c.instruments.end(ctx, span, status, elapsed, res)
	c.observer.ObserveCompile(status, elapsed, res)

	c.logger.Debug("blueprint compiled",
		zap.String("status", status),
		zap.Int("nodes", res.Stats.Nodes),
		zap.Int("edges", res.Stats.Edges),
		zap.Int("errors", len(res.Validation.Errors)),
		zap.Int("warnings", len(res.Validation.Warnings)),
		zap.Duration("elapsed", elapsed),
	)
	return res
}

func (c *Compiler) compile(ctx context.Context, bp *blueprint.Blueprint, opts CompileOptions) (*Result, string) {
	validation := c.validator.Validate(bp)
	if !validation.Valid {
		return &Result{Validation: validation}, StatusInvalid
	}
	if opts.ValidateOnly {
		return &Result{Success: true, Validation: validation}, StatusSuccess
	}

	wf, built, err := c.build(ctx, bp, opts)
	if err != nil {
		c.logger.Error("blueprint compilation failed",
			zap.String("owner_id", bp.OwnerID),
			zap.String("version", bp.Version),
			zap.Error(err),
		)
		validation.Errors = append(validation.Errors, ValidationError{
			Code:    CodeCompilationError,
			Message: "compilation failed unexpectedly, please retry",
		})
		validation.Valid = false
		return &Result{Validation: validation}, StatusFault
	}

	return &Result{
		Success:    true,
		Workflow:   wf,
		Validation: validation,
		Stats:      Stats{Nodes: len(wf.Nodes), Edges: built},
	}, StatusSuccess
}

// build runs conversion, connection building, layout and optimization.
// Panics are converted to errors.
func (c *Compiler) build(ctx context.Context, bp *blueprint.Blueprint, opts CompileOptions) (wf *CompiledWorkflow, built int, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during compilation",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			wf, built, err = nil, 0, fmt.Errorf("panic: %v", r)
		}
	}()

	wf = &CompiledWorkflow{
		Name: workflowName(bp),
		Meta: WorkflowMeta{
			OwnerID:     bp.OwnerID,
			Version:     bp.Version,
			Description: bp.Description,
		},
	}

	wf.Nodes = make([]CompiledNode, 0, len(bp.Nodes))
	for _, node := range bp.Nodes {
		cn, err := c.convertNode(node)
		if err != nil {
			return nil, 0, err
		}
		wf.Nodes = append(wf.Nodes, cn)
	}

	wf.Connections, built = buildConnections(wf.Nodes, bp.Edges)

	if opts.autoLayout() {
		positions := Layout(bp.NodeIDs(), bp.Edges, c.layout)
		for i := range wf.Nodes {
			wf.Nodes[i].Position = positions[wf.Nodes[i].ID]
		}
	}

	if opts.Optimize {
		for _, o := range c.optimizers {
			if err := o.Optimize(ctx, wf); err != nil {
				return nil, 0, fmt.Errorf("optimizer %s: %w", o.Name(), err)
			}
		}
	}

	return wf, built, nil
}

// convertNode renders a Blueprint node into its type template.
func (c *Compiler) convertNode(node blueprint.Node) (CompiledNode, error) {
	def, ok := c.registry.Get(node.Type)
	if !ok {
		return CompiledNode{}, fmt.Errorf("node %s: unknown node type %s", node.ID, node.Type)
	}

	params := maputil.DeepCopy(def.Template.Parameters)
	if params == nil {
		params = make(map[string]any, len(node.Config))
	}
	for _, in := range def.Inputs {
		if in.Default == nil {
			continue
		}
		if _, set := maputil.GetPath(params, in.Name); !set {
			maputil.SetPath(params, in.Name, maputil.CopyValue(in.Default))
		}
	}
	for _, key := range sortedConfigKeys(node.Config) {
		maputil.SetPath(params, key, maputil.CopyValue(node.Config[key]))
	}

	version := def.Template.TypeVersion
	if version == 0 {
		version = 1
	}

	cn := CompiledNode{
		ID:          node.ID,
		Name:        node.DisplayName(),
		NodeType:    node.Type,
		Type:        def.Template.TargetType,
		TypeVersion: version,
		Parameters:  params,
		Credentials: maputil.DeepCopy(def.Template.Credentials),
	}
	if node.Position != nil {
		cn.Position = *node.Position
	}
	return cn, nil
}

// buildConnections groups edges by source and branch into a single lane each.
// Edges whose ends do not resolve are skipped. It returns the number built.
func buildConnections(nodes []CompiledNode, edges []blueprint.Edge) (Connections, int) {
	idMap := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, exists := idMap[n.ID]; !exists {
			idMap[n.ID] = n.ID
		}
	}

	conns := make(Connections)
	built := 0
	for _, e := range edges {
		src, okSrc := idMap[e.Source]
		dst, okDst := idMap[e.Target]
		if !okSrc || !okDst {
			continue
		}

		branches, ok := conns[src]
		if !ok {
			branches = make(map[string][][]ConnectionTarget)
			conns[src] = branches
		}
		branch := e.Branch()
		if len(branches[branch]) == 0 {
			branches[branch] = [][]ConnectionTarget{{}}
		}
		branches[branch][0] = append(branches[branch][0], ConnectionTarget{
			Node:  dst,
			Type:  connectionType,
			Index: 0,
		})
		built++
	}
	return conns, built
}

func workflowName(bp *blueprint.Blueprint) string {
	if bp.Name != "" {
		return bp.Name
	}
	return bp.OwnerID + "-" + bp.Version
}

// sortedConfigKeys returns config keys in byte order. A plain key always sorts
// before its dotted children ("options" < "options.timeout"), so it replaces the
// template value first and the children then merge into it. Merge results rely
// on this order.
func sortedConfigKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
