package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, "detector")

	l.Info("hello %s", "hive")
	l.Warning("queue at %d%%", 90)
	l.Error("boom")

	cases := map[string]string{
		"info.log":    "hello hive",
		"warning.log": "queue at 90%",
		"error.log":   "boom",
	}
	for file, want := range cases {
		data, err := os.ReadFile(filepath.Join(dir, "detector", file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s: expected %q in %q", file, want, string(data))
		}
	}
}

func TestCleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, "telemetry")
	l.Error("something failed")

	if err := l.CleanLogs("error.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry", "error.log"))
	if err != nil {
		t.Fatalf("Failed to read error.log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty error.log, got %q", string(data))
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	if l.Dir() != "" {
		t.Errorf("Expected empty dir, got %q", l.Dir())
	}
	if err := l.CleanLogs("info.log"); err != nil {
		t.Errorf("Expected nil error from nop CleanLogs, got %v", err)
	}
}
