package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic talks to the Messages API. It has no raw completion mode, so
// useTemplate is ignored.
type Anthropic struct {
	client    anthropic.Client
	model     string
	system    string
	maxTokens int64
}

func NewAnthropic(apiKey, model, system string, maxTokens int, opts ...option.RequestOption) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client:    anthropic.NewClient(reqOpts...),
		model:     model,
		system:    system,
		maxTokens: int64(maxTokens),
	}
}

func (p *Anthropic) Name() string {
	return fmt.Sprintf("anthropic (%s)", p.model)
}

func (p *Anthropic) Generate(ctx context.Context, prompt string, _ bool) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.system}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func (p *Anthropic) Close() error {
	return nil
}
