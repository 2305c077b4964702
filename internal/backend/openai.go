package backend

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI talks to the OpenAI API or any server that speaks its protocol
// (llama.cpp server, LM Studio, vLLM).
//
// useTemplate selects Chat Completions, where the server formats the
// conversation. Without it, or with a local template configured, the prompt
// goes to the legacy Completions endpoint as-is.
type OpenAI struct {
	client   openai.Client
	label    string
	model    string
	system   string
	template *Template
}

// NewOpenAI creates an OpenAI-compatible backend. An empty baseURL uses the
// SDK default.
func NewOpenAI(label, apiKey, baseURL, model, system string, tmpl *Template, opts ...option.RequestOption) *OpenAI {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &OpenAI{
		client:   openai.NewClient(reqOpts...),
		label:    label,
		model:    model,
		system:   system,
		template: tmpl,
	}
}

func (p *OpenAI) Name() string {
	return fmt.Sprintf("%s (%s)", p.label, p.model)
}

func (p *OpenAI) Generate(ctx context.Context, prompt string, useTemplate bool) (string, error) {
	if useTemplate && p.template == nil {
		return p.chat(ctx, prompt)
	}
	if useTemplate {
		prompt = p.template.Render(p.system, prompt)
	}
	return p.complete(ctx, prompt)
}

func (p *OpenAI) chat(ctx context.Context, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if p.system != "" {
		messages = append(messages, openai.SystemMessage(p.system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:  openai.CompletionNewParamsModel(p.model),
		Prompt: openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Text, nil
}

func (p *OpenAI) Close() error {
	return nil
}
