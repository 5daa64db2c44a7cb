package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	scoped := zap.New(core).With(zap.String("request_id", "req-1"))
	ctx := WithContext(context.Background(), scoped)

	FromContext(ctx, nil).Info("scoped")
	if logs.Len() != 1 || logs.All()[0].ContextMap()["request_id"] != "req-1" {
		t.Fatalf("expected scoped logger to be returned, got %+v", logs.All())
	}

	fallbackCore, fallbackLogs := observer.New(zap.InfoLevel)
	FromContext(context.Background(), zap.New(fallbackCore)).Info("fallback")
	if fallbackLogs.Len() != 1 {
		t.Fatal("expected fallback logger when context has none")
	}

	if FromContext(context.Background(), nil) == nil {
		t.Fatal("expected a no-op logger, got nil")
	}
}
