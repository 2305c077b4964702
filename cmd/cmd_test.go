package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/llama-chat/llama-chat/internal/config"
	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/session"
)

func TestProviderCompletions(t *testing.T) {
	got := providerCompletions("o")
	if !slices.Equal(got, []string{"ollama", "openai", "openai-compat"}) {
		t.Fatalf("completions(o)=%v", got)
	}
	got = providerCompletions("anthropic:")
	if len(got) != 1 || got[0] != "anthropic:claude-sonnet-4-5" {
		t.Fatalf("completions(anthropic:)=%v", got)
	}
	if got := providerCompletions("zzz"); len(got) != 0 {
		t.Fatalf("completions(zzz)=%v", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 8"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v)=%q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestPrintSessionList(t *testing.T) {
	now := time.Now()
	var buf bytes.Buffer
	printSessionList(&buf, nil, now)
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("empty list=%q", buf.String())
	}

	buf.Reset()
	printSessionList(&buf, []session.Summary{{
		Session:   session.Session{ID: "20260310-120000-abcdef", Provider: "ollama", UpdatedAt: now},
		TurnCount: 2,
		Preview:   "hello\nthere",
	}}, now)
	out := buf.String()
	for _, want := range []string{"20260310-120000-abcdef", "ollama", "just now", "hello there"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSessionMarksTurns(t *testing.T) {
	var buf bytes.Buffer
	printSession(&buf, &session.Session{ID: "s1", Provider: "echo", Model: "echo"}, []conversation.Turn{
		{Role: conversation.RoleUser, Text: "x", Sequence: 1},
		{Role: conversation.RoleAssistant, Text: "Error: timeout", Sequence: 2, Failed: true},
	})
	out := buf.String()
	if !strings.Contains(out, "❯ x") || !strings.Contains(out, "✗ Error: timeout") || !strings.Contains(out, "Turns: 2") {
		t.Fatalf("show output:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "llama-chat version dev") {
		t.Fatalf("version output=%q", buf.String())
	}
}

func TestSessionsExportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sessions.db")
	cfgPath := filepath.Join(dir, "config.yaml")

	cfg := config.Default()
	cfg.Provider = config.ProviderEcho
	cfg.Session = config.SessionConfig{Enabled: true, Path: dbPath}
	if err := config.Save(cfg, cfgPath); err != nil {
		t.Fatal(err)
	}

	store, err := session.Open(session.Config{Enabled: true, Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	sess := &session.Session{ID: "20260310-120000-abcdef", Provider: "echo", Model: "echo"}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatal(err)
	}
	for _, turn := range []conversation.Turn{
		{Role: conversation.RoleUser, Text: "hello", Sequence: 1},
		{Role: conversation.RoleAssistant, Text: "hi", Sequence: 2, RequestID: 1},
	} {
		if err := store.AppendTurn(ctx, sess.ID, turn); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.md")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", cfgPath, "sessions", "export", "20260310", out})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configPath = ""
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sessions export: %v", err)
	}
	if !strings.Contains(buf.String(), "Exported 2 turns") {
		t.Fatalf("output=%q", buf.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "**You**: hello") || !strings.Contains(string(data), "hi") {
		t.Fatalf("export=%s", data)
	}
}
