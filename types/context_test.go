package types

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, ok := RequestID(ctx); ok {
		t.Fatalf("expected no request id on empty context")
	}

	ctx = WithRequestID(ctx, "req-1")
	if got, ok := RequestID(ctx); !ok || got != "req-1" {
		t.Fatalf("RequestID mismatch: %v %v", got, ok)
	}

	ctx = WithTraceID(ctx, "t1")
	if got, ok := TraceID(ctx); !ok || got != "t1" {
		t.Fatalf("TraceID mismatch: %v %v", got, ok)
	}

	ctx = WithOwnerID(ctx, "owner")
	if got, ok := OwnerID(ctx); !ok || got != "owner" {
		t.Fatalf("OwnerID mismatch: %v %v", got, ok)
	}

	ctx = WithOwnerID(ctx, "")
	if _, ok := OwnerID(ctx); ok {
		t.Fatalf("empty owner id must not be reported")
	}
}
