// Package service wires the compiler, the compile cache and the export
// targets behind one API used by the HTTP handlers and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/internal/cache"
	"github.com/BaSui01/botflow/nodetype"
	"github.com/BaSui01/botflow/target/n8n"
)

// ErrUnknownTarget is returned by Export for an unregistered target name.
var ErrUnknownTarget = errors.New("unknown export target")

// ErrNotCompiled is returned by Export when the blueprint did not compile.
var ErrNotCompiled = errors.New("blueprint did not compile")

// Cache stores successful compile results. *cache.Manager implements it.
type Cache interface {
	Key(bp *blueprint.Blueprint, opts compiler.CompileOptions, fingerprint string) (string, error)
	Get(ctx context.Context, key string) (*compiler.Result, error)
	Put(ctx context.Context, key string, result *compiler.Result) (bool, error)
}

// Exporter adapts a compiled workflow to an external engine document.
type Exporter func(wf *compiler.CompiledWorkflow, reg *nodetype.Registry) (any, error)

// Outcome is a compile result plus how it was produced.
type Outcome struct {
	Result *compiler.Result
	Cached bool
}

// BlueprintService compiles, validates and exports blueprints.
type BlueprintService struct {
	compiler  *compiler.Compiler
	cache     Cache
	exporters map[string]Exporter
	logger    *zap.Logger
	// autoLayout applies when a request leaves CompileOptions.AutoLayout unset
	autoLayout *bool
}

// Option configures a BlueprintService.
type Option func(*BlueprintService)

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(s *BlueprintService) {
		s.cache = c
	}
}

// WithDefaultAutoLayout sets the layout behaviour for requests that do not choose one.
func WithDefaultAutoLayout(enabled bool) Option {
	return func(s *BlueprintService) {
		s.autoLayout = compiler.Bool(enabled)
	}
}

// WithExporter registers an export target under name.
func WithExporter(name string, fn Exporter) Option {
	return func(s *BlueprintService) {
		s.exporters[name] = fn
	}
}

// NewBlueprintService builds a service around c. The n8n target is always registered.
func NewBlueprintService(c *compiler.Compiler, logger *zap.Logger, opts ...Option) *BlueprintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BlueprintService{
		compiler: c,
		exporters: map[string]Exporter{
			"n8n": func(wf *compiler.CompiledWorkflow, reg *nodetype.Registry) (any, error) {
				return n8n.Export(wf, reg)
			},
		},
		logger: logger.With(zap.String("component", "blueprint_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the node-type registry the compiler uses.
func (s *BlueprintService) Registry() *nodetype.Registry {
	return s.compiler.Registry()
}

// Targets lists the registered export targets in sorted order.
func (s *BlueprintService) Targets() []string {
	names := make([]string, 0, len(s.exporters))
	for name := range s.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate runs validation only.
func (s *BlueprintService) Validate(bp *blueprint.Blueprint) compiler.ValidationResult {
	return s.compiler.Validate(bp)
}

// Compile compiles bp, consulting the cache first when one is configured.
// Cache failures are logged and never fail the request.
func (s *BlueprintService) Compile(ctx context.Context, bp *blueprint.Blueprint, opts compiler.CompileOptions) Outcome {
	if opts.AutoLayout == nil && s.autoLayout != nil {
		opts.AutoLayout = compiler.Bool(*s.autoLayout)
	}
	if s.cache == nil || opts.ValidateOnly {
		return Outcome{Result: s.compiler.Compile(ctx, bp, opts)}
	}

	key, err := s.cache.Key(bp, opts, s.compiler.Registry().Fingerprint())
	if err != nil {
		s.logger.Warn("cache key computation failed", zap.Error(err))
		return Outcome{Result: s.compiler.Compile(ctx, bp, opts)}
	}

	if res, err := s.cache.Get(ctx, key); err == nil {
		return Outcome{Result: res, Cached: true}
	} else if !cache.IsCacheMiss(err) {
		s.logger.Warn("cache lookup failed", zap.Error(err))
	}

	res := s.compiler.Compile(ctx, bp, opts)
	if _, err := s.cache.Put(ctx, key, res); err != nil {
		s.logger.Warn("cache store failed", zap.Error(err))
	}
	return Outcome{Result: res}
}

// Export compiles bp and adapts it to the named target. When compilation
// fails the outcome is returned together with ErrNotCompiled.
func (s *BlueprintService) Export(ctx context.Context, bp *blueprint.Blueprint, opts compiler.CompileOptions, target string) (any, Outcome, error) {
	fn, ok := s.exporters[target]
	if !ok {
		return nil, Outcome{}, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}

	opts.ValidateOnly = false
	out := s.Compile(ctx, bp, opts)
	if !out.Result.Success || out.Result.Workflow == nil {
		return nil, out, ErrNotCompiled
	}

	doc, err := fn(out.Result.Workflow, s.compiler.Registry())
	if err != nil {
		return nil, out, fmt.Errorf("export to %s: %w", target, err)
	}
	return doc, out, nil
}
