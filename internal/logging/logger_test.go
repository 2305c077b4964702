package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chat.log")

	logger, closeLog, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello from test")
	logger.Debug("hidden at info level")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file missing entry: %q", data)
	}
	if strings.Contains(string(data), "hidden at info level") {
		t.Fatalf("debug entry written at info level: %q", data)
	}
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := New(Options{Debug: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("visible debug")
	closeLog()

	if !strings.Contains(buf.String(), "visible debug") {
		t.Fatalf("expected debug entry, got %q", buf.String())
	}
}

func TestDefaultFileUsesXDGStateHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	path, err := DefaultFile()
	if err != nil {
		t.Fatalf("DefaultFile: %v", err)
	}
	want := filepath.Join(dir, "llama-chat", "llama-chat.log")
	if path != want {
		t.Fatalf("path=%q, want %q", path, want)
	}
}
