package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{Provider: ProviderOllama, Model: "llama3.2"}

	if err := cfg.ApplyOverrides("openai:gpt-4o"); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	if cfg.Provider != ProviderOpenAI || cfg.Model != "gpt-4o" {
		t.Fatalf("got %s:%s, want openai:gpt-4o", cfg.Provider, cfg.Model)
	}

	if err := cfg.ApplyOverrides(":gpt-4.1"); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	if cfg.Provider != ProviderOpenAI || cfg.Model != "gpt-4.1" {
		t.Fatalf("model-only override changed provider: %s:%s", cfg.Provider, cfg.Model)
	}

	if err := cfg.ApplyOverrides("gemini"); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	if cfg.Model != "" {
		t.Fatalf("switching provider kept model %q", cfg.Model)
	}
	if got := cfg.ModelName(); got != "gemini-2.5-flash" {
		t.Fatalf("ModelName()=%q, want gemini default", got)
	}

	if err := cfg.ApplyOverrides("nope:model"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if err := cfg.ApplyOverrides("  "); err != nil {
		t.Fatalf("blank override: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("provider=%q, want ollama", cfg.Provider)
	}
	if cfg.ModelName() != "llama3.2" {
		t.Errorf("model=%q, want llama3.2", cfg.ModelName())
	}
	if !cfg.UseTemplate {
		t.Error("use_template should default to true")
	}
	if cfg.Welcome != "Welcome to Llama Chat!" {
		t.Errorf("welcome=%q", cfg.Welcome)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("ollama.base_url=%q", cfg.Ollama.BaseURL)
	}
	if cfg.Inference.Timeout != 0 {
		t.Errorf("timeout=%v, want 0", cfg.Inference.Timeout)
	}
	if cfg.Session.Enabled {
		t.Error("session archive should be off by default")
	}
	if cfg.Serve.Listen != "127.0.0.1:8080" || cfg.Serve.SubmitBurst != 10 {
		t.Errorf("serve=%+v", cfg.Serve)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `provider: anthropic
model: claude-haiku-4-5
use_template: false
anthropic:
  api_key: ${TEST_ANTHROPIC_KEY}
  max_tokens: 256
inference:
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test")
	t.Setenv("LLAMA_CHAT_SERVE_LISTEN", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderAnthropic || cfg.Model != "claude-haiku-4-5" {
		t.Errorf("got %s:%s", cfg.Provider, cfg.Model)
	}
	if cfg.UseTemplate {
		t.Error("use_template should be false from file")
	}
	if cfg.Anthropic.APIKey != "sk-test" {
		t.Errorf("api_key=%q, want resolved env value", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.MaxTokens != 256 {
		t.Errorf("max_tokens=%d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Inference.Timeout != 45*time.Second {
		t.Errorf("timeout=%v", cfg.Inference.Timeout)
	}
	if cfg.Serve.Listen != ":9999" {
		t.Errorf("serve.listen=%q, want env override", cfg.Serve.Listen)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: llamacpp-native\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		Provider:    ProviderEcho,
		Model:       "echo",
		UseTemplate: true,
		Welcome:     "hi there",
		Ollama:      OllamaConfig{BaseURL: "http://gpu-box:11434"},
		Inference:   InferenceConfig{Timeout: 2 * time.Minute},
		Serve:       ServeConfig{Listen: "127.0.0.1:8080", SubmitRate: 5, SubmitBurst: 10},
	}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Provider != ProviderEcho || got.Welcome != "hi there" {
		t.Errorf("got %+v", got)
	}
	if got.Ollama.BaseURL != "http://gpu-box:11434" {
		t.Errorf("base_url=%q", got.Ollama.BaseURL)
	}
	if got.Inference.Timeout != 2*time.Minute {
		t.Errorf("timeout=%v", got.Inference.Timeout)
	}
}

func TestResolveValue(t *testing.T) {
	t.Setenv("LLAMA_TEST_SECRET", "s3cret")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain-value", "plain-value"},
		{"${LLAMA_TEST_SECRET}", "s3cret"},
		{"$LLAMA_TEST_SECRET", "s3cret"},
		{"$(echo from-command)", "from-command"},
		{"http://localhost:11434", "http://localhost:11434"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ResolveValue(tc.in)
			if err != nil {
				t.Fatalf("ResolveValue(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ResolveValue(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}

	if _, err := ResolveValue("$(exit 3)"); err == nil {
		t.Fatal("expected error for failing command")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != ProviderOllama || cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Fatalf("Default()=%+v", cfg)
	}
	if !cfg.UseTemplate || cfg.Anthropic.MaxTokens != 1024 || cfg.Serve.SubmitBurst != 10 {
		t.Fatalf("Default() missing defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
}
