package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
	"github.com/BaSui01/botflow/internal/service"
	"github.com/BaSui01/botflow/nodetype"
)

// =============================================================================
// 🛠️ 批量编译命令
// =============================================================================

// fileResult 单个文件的编译或校验结果
type fileResult struct {
	File     string                     `json:"file"`
	Error    string                     `json:"error,omitempty"`
	Result   *compiler.Result           `json:"result,omitempty"`
	Document any                        `json:"document,omitempty"`
	Issues   *compiler.ValidationResult `json:"validation,omitempty"`
}

func (r fileResult) ok() bool {
	if r.Error != "" {
		return false
	}
	if r.Result != nil {
		return r.Result.Success
	}
	return r.Issues != nil && r.Issues.Valid
}

// cliOptions compile/validate 共用参数
type cliOptions struct {
	catalog  string
	strict   bool
	noLayout bool
	optimize bool
	target   string
	jobs     int
}

func parseCLIFlags(name string, args []string, stderr io.Writer) (cliOptions, []string, error) {
	var o cliOptions
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.catalog, "catalog", "", "Path to node-type catalog (YAML); builtin when empty")
	fs.BoolVar(&o.strict, "strict-cycles", false, "Reject cycles through node types that do not allow them")
	if name == "compile" {
		fs.BoolVar(&o.noLayout, "no-layout", false, "Keep authored node positions")
		fs.BoolVar(&o.optimize, "optimize", false, "Run post-compile optimizers")
		fs.StringVar(&o.target, "target", "", "Export target, e.g. n8n; empty prints the compiled graph")
	}
	fs.IntVar(&o.jobs, "jobs", runtime.NumCPU(), "Maximum files processed concurrently")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	if fs.NArg() == 0 {
		return o, nil, fmt.Errorf("%s: at least one blueprint file is required", name)
	}
	return o, fs.Args(), nil
}

func newCLIService(o cliOptions, logger *zap.Logger) (*service.BlueprintService, error) {
	reg, err := nodetype.NewRegistryFromFile(o.catalog)
	if err != nil {
		return nil, err
	}
	c := compiler.New(reg,
		compiler.WithLogger(logger),
		compiler.WithStrictCycles(o.strict),
		compiler.WithOptimizers(compiler.PruneEmptyCredentials),
	)
	return service.NewBlueprintService(c, logger), nil
}

// processFiles 并发处理 files，结果按参数顺序返回
func processFiles(ctx context.Context, files []string, jobs int, fn func(ctx context.Context, bp *blueprint.Blueprint) fileResult) []fileResult {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, file := range files {
		g.Go(func() error {
			bp, err := blueprint.LoadFile(file)
			if err != nil {
				results[i] = fileResult{File: file, Error: err.Error()}
				return nil
			}
			r := fn(gctx, bp)
			r.File = file
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runCompile 执行 compile 子命令，返回进程退出码
func runCompile(ctx context.Context, args []string, stdout, stderr io.Writer, logger *zap.Logger) int {
	o, files, err := parseCLIFlags("compile", args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	svc, err := newCLIService(o, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load node types: %v\n", err)
		return 1
	}

	opts := compiler.CompileOptions{AutoLayout: compiler.Bool(!o.noLayout), Optimize: o.optimize}
	results := processFiles(ctx, files, o.jobs, func(ctx context.Context, bp *blueprint.Blueprint) fileResult {
		if o.target == "" {
			return fileResult{Result: svc.Compile(ctx, bp, opts).Result}
		}
		doc, out, err := svc.Export(ctx, bp, opts, o.target)
		r := fileResult{Result: out.Result, Document: doc}
		if err != nil {
			r.Error = err.Error()
		}
		return r
	})

	return writeResults(stdout, stderr, results)
}

// runValidate 执行 validate 子命令
func runValidate(ctx context.Context, args []string, stdout, stderr io.Writer, logger *zap.Logger) int {
	o, files, err := parseCLIFlags("validate", args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	svc, err := newCLIService(o, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load node types: %v\n", err)
		return 1
	}

	results := processFiles(ctx, files, o.jobs, func(_ context.Context, bp *blueprint.Blueprint) fileResult {
		v := svc.Validate(bp)
		return fileResult{Issues: &v}
	})

	return writeResults(stdout, stderr, results)
}

func writeResults(stdout, stderr io.Writer, results []fileResult) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	code := 0
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(stderr, "Failed to write result for %s: %v\n", r.File, err)
			return 1
		}
		if !r.ok() {
			code = 1
		}
	}
	return code
}

// =============================================================================
// 🧩 node-types 命令
// =============================================================================

func runNodeTypes(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("node-types", flag.ContinueOnError)
	fs.SetOutput(stderr)
	catalog := fs.String("catalog", "", "Path to node-type catalog (YAML); builtin when empty")
	asJSON := fs.Bool("json", false, "Print full definitions as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	reg, err := nodetype.NewRegistryFromFile(*catalog)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load node types: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reg.List()); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCATEGORY\tTARGET\tOUTPUTS")
	for _, d := range reg.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", d.Type, d.Category, d.Template.TargetType, d.OutputNames())
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
