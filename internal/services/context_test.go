package services_test

import (
	"context"
	"testing"

	"reelgen/internal/services"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on empty context")
	}
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "render")
	ctx = services.WithRequestID(ctx, "req-9")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q (%v)", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "render" {
		t.Fatalf("unexpected stage %q (%v)", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-9" {
		t.Fatalf("unexpected request id %q (%v)", rid, ok)
	}
}

func TestEmptyValuesLeaveContextUntouched(t *testing.T) {
	base := context.Background()
	if services.WithStage(base, "") != base {
		t.Fatal("empty stage should return the same context")
	}
	if services.WithRunID(base, "") != base {
		t.Fatal("empty run id should return the same context")
	}
}
