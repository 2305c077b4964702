package ui

import (
	"testing"

	"github.com/llama-chat/llama-chat/internal/config"
)

func TestBuildConfig(t *testing.T) {
	cfg, err := BuildConfig(WizardAnswers{
		Provider: config.ProviderOpenAICompat,
		Model:    " qwen2.5 ",
		BaseURL:  "http://localhost:8081/v1",
		Template: "chatml",
		Sessions: true,
	})
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	if cfg.Provider != config.ProviderOpenAICompat || cfg.Model != "qwen2.5" {
		t.Fatalf("provider/model = %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:8081/v1" || cfg.Template != "chatml" || !cfg.Session.Enabled {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.OpenAI.APIKey != "" {
		t.Fatal("wizard must not write API keys")
	}
	if cfg.Welcome != "Welcome to Llama Chat!" {
		t.Fatalf("defaults not applied: welcome=%q", cfg.Welcome)
	}
}

func TestBuildConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		answers WizardAnswers
	}{
		{"compat without url", WizardAnswers{Provider: config.ProviderOpenAICompat}},
		{"unknown template", WizardAnswers{Provider: config.ProviderOllama, Template: "alpaca"}},
		{"unknown provider", WizardAnswers{Provider: "llamafile"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildConfig(tt.answers); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildConfigKeepsOllamaDefaultURL(t *testing.T) {
	cfg, err := BuildConfig(WizardAnswers{Provider: config.ProviderOllama})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Fatalf("base_url=%q", cfg.Ollama.BaseURL)
	}
}
