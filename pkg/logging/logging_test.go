package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	logger, closer := New(Options{File: path})

	logger.Info("sync complete", "created", 2)
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(b), "created=2") {
		t.Errorf("Expected attribute in log, got %q", b)
	}
	if strings.Contains(string(b), "hidden") {
		t.Error("Expected debug lines to be filtered")
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	logger, _ := New(Options{Verbose: true})
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug to be enabled")
	}
}
