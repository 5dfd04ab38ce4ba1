package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLoggersUsableBeforeInit(t *testing.T) {
	AppLogger.Info("not initialised yet")
	ErrorLogger.Error("still fine")
	LogDuration(context.Background(), "noop")()
}

func TestInitLoggerCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := InitLogger(dir); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	defer Sync()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected log dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %s to be a directory", dir)
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("expected req-1, got %q", got)
	}
}
