package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Raw    bool   `json:"raw"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// Ollama talks to an Ollama server over its HTTP API.
//
// With useTemplate and no local template the server applies the model's own
// chat template (/api/chat). Otherwise the prompt is sent verbatim with
// raw=true to /api/generate, rendered through the local template if one is
// configured.
type Ollama struct {
	baseURL  string
	model    string
	system   string
	template *Template
	client   *http.Client
}

// NewOllama creates an Ollama backend. tmpl may be nil.
func NewOllama(baseURL, model, system string, tmpl *Template) *Ollama {
	return &Ollama{
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		system:   system,
		template: tmpl,
		client:   &http.Client{},
	}
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("ollama (%s)", o.model)
}

func (o *Ollama) Generate(ctx context.Context, prompt string, useTemplate bool) (string, error) {
	if useTemplate && o.template == nil {
		return o.chat(ctx, prompt)
	}
	if useTemplate {
		prompt = o.template.Render(o.system, prompt)
	}
	return o.generate(ctx, prompt)
}

func (o *Ollama) chat(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatRequest{Model: o.model}
	if o.system != "" {
		req.Messages = append(req.Messages, ollamaMessage{Role: "system", Content: o.system})
	}
	req.Messages = append(req.Messages, ollamaMessage{Role: "user", Content: prompt})

	var resp ollamaChatResponse
	if err := o.post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaGenerateRequest{Model: o.model, Prompt: prompt, Raw: true}
	var resp ollamaGenerateResponse
	if err := o.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (o *Ollama) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr ollamaError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("ollama returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ollama response: %w", err)
	}
	return nil
}

func (o *Ollama) Close() error {
	o.client.CloseIdleConnections()
	return nil
}
