package compiler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/BaSui01/botflow/compiler"

// Compile outcomes reported to observers and telemetry.
const (
	StatusSuccess = "success"
	StatusInvalid = "invalid"
	StatusFault   = "fault"
)

// Observer receives one notification per Compile call. Implementations must
// be safe for concurrent use.
type Observer interface {
	ObserveCompile(status string, elapsed time.Duration, result *Result)
}

type nopObserver struct{}

func (nopObserver) ObserveCompile(string, time.Duration, *Result) {}

// instruments wraps the OTel tracer and meters used by Compile.
type instruments struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	nodes    metric.Int64Histogram
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	in := &instruments{tracer: otel.Tracer(instrumentationName)}

	// instrument creation only fails on invalid names; fall back to no-op
	var err error
	in.duration, err = meter.Float64Histogram("botflow.compile.duration",
		metric.WithDescription("Blueprint compilation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100))
	if err != nil {
		in.duration = nil
	}
	in.nodes, err = meter.Int64Histogram("botflow.compile.nodes",
		metric.WithDescription("Nodes per compiled workflow"),
		metric.WithUnit("{node}"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500))
	if err != nil {
		in.nodes = nil
	}
	return in
}

func (in *instruments) start(ctx context.Context, nodes, edges int, opts CompileOptions) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "blueprint.compile",
		trace.WithAttributes(
			attribute.Int("blueprint.nodes", nodes),
			attribute.Int("blueprint.edges", edges),
			attribute.Bool("compile.validate_only", opts.ValidateOnly),
			attribute.Bool("compile.auto_layout", opts.autoLayout()),
			attribute.Bool("compile.optimize", opts.Optimize),
		))
}

func (in *instruments) end(ctx context.Context, span trace.Span, status string, elapsed time.Duration, res *Result) {
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("status", status))
	if in.duration != nil {
		in.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
	if in.nodes != nil && res.Workflow != nil {
		in.nodes.Record(ctx, int64(len(res.Workflow.Nodes)), attrs)
	}

	span.SetAttributes(
		attribute.String("compile.status", status),
		attribute.Int("validation.errors", len(res.Validation.Errors)),
		attribute.Int("validation.warnings", len(res.Validation.Warnings)),
		attribute.Float64("compile.duration_ms", res.Stats.ElapsedMs),
	)
	switch status {
	case StatusFault:
		span.SetStatus(codes.Error, "compilation fault")
	case StatusInvalid:
		span.SetStatus(codes.Error, "validation failed")
	default:
		span.SetStatus(codes.Ok, "")
	}
}
