package services_test

import (
	"context"
	"testing"

	"docvault/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithFileID(ctx, 42)
	ctx = services.WithPath(ctx, "/tmp/report.docx")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.FileIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected file id: %v %v", id, ok)
	}
	if path, ok := services.PathFromContext(ctx); !ok || path != "/tmp/report.docx" {
		t.Fatalf("unexpected path: %v %v", path, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPath(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.PathFromContext(ctx); ok {
		t.Fatal("expected no path value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
	if _, ok := services.FileIDFromContext(ctx); ok {
		t.Fatal("expected no file id")
	}
}
