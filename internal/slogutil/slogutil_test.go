package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("visible", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "key=value") {
		t.Errorf("warn line missing from output: %q", out)
	}
}

func TestNewFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edittrail.log")

	log, f, err := NewFileLogger(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	log.Info("first run")
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// A second open must append, not truncate.
	log, f, err = NewFileLogger(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewFileLogger reopen: %v", err)
	}
	log.Info("second run")
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "first run") || !strings.Contains(out, "second run") {
		t.Errorf("log file missing lines: %q", out)
	}
}

func TestNewFileLoggerBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "edittrail.log")
	if _, _, err := NewFileLogger(path, slog.LevelInfo); err == nil {
		t.Error("expected an error for a path in a missing directory")
	}
}
