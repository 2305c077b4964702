// Package backend provides the text-generation backends a chat session can
// run against, and the chat templates used to format raw prompts.
package backend

import (
	"context"
	"fmt"

	"github.com/llama-chat/llama-chat/internal/config"
	"github.com/llama-chat/llama-chat/internal/inference"
)

var (
	_ inference.Backend = (*Ollama)(nil)
	_ inference.Backend = (*OpenAI)(nil)
	_ inference.Backend = (*Anthropic)(nil)
	_ inference.Backend = (*Gemini)(nil)
	_ inference.Backend = (*Echo)(nil)
	_ inference.Backend = (*Mock)(nil)
)

// New builds the backend selected by cfg. It is called once per session; the
// caller owns the result and must Close it.
func New(ctx context.Context, cfg *config.Config) (inference.Backend, error) {
	var tmpl *Template
	if cfg.Template != "" {
		t, err := LookupTemplate(cfg.Template)
		if err != nil {
			return nil, err
		}
		tmpl = &t
	}

	model := cfg.ModelName()
	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllama(cfg.Ollama.BaseURL, model, cfg.SystemPrompt, tmpl), nil
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai: api key not configured (set OPENAI_API_KEY or openai.api_key)")
		}
		return NewOpenAI("openai", cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, model, cfg.SystemPrompt, tmpl), nil
	case config.ProviderOpenAICompat:
		if cfg.OpenAI.BaseURL == "" {
			return nil, fmt.Errorf("openai-compat: openai.base_url is required")
		}
		key := cfg.OpenAI.APIKey
		if key == "" {
			// Local servers ignore the key but the SDK insists on one.
			key = "none"
		}
		return NewOpenAI("openai-compat", key, cfg.OpenAI.BaseURL, model, cfg.SystemPrompt, tmpl), nil
	case config.ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic: api key not configured (set ANTHROPIC_API_KEY or anthropic.api_key)")
		}
		return NewAnthropic(cfg.Anthropic.APIKey, model, cfg.SystemPrompt, cfg.Anthropic.MaxTokens), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.Gemini.APIKey, "", model, cfg.SystemPrompt)
	case config.ProviderEcho:
		if tmpl == nil {
			t := templates["llama3"]
			tmpl = &t
		}
		return NewEcho(cfg.SystemPrompt, tmpl, 0), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
