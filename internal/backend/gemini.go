package backend

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini talks to the Gemini API. Like Anthropic it only offers a chat-style
// endpoint, so useTemplate is ignored.
type Gemini struct {
	client *genai.Client
	model  string
	system string
}

// NewGemini creates a Gemini backend. baseURL overrides the API endpoint and
// is normally empty.
func NewGemini(ctx context.Context, apiKey, baseURL, model, system string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, system: system}, nil
}

func (p *Gemini) Name() string {
	return fmt.Sprintf("gemini (%s)", p.model)
}

func (p *Gemini) Generate(ctx context.Context, prompt string, _ bool) (string, error) {
	var config *genai.GenerateContentConfig
	if p.system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(p.system, genai.RoleUser),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return resp.Text(), nil
}

func (p *Gemini) Close() error {
	return nil
}
