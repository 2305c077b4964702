package backend

import (
	"fmt"
	"slices"
	"strings"
)

// Template renders a single user prompt, plus an optional system prompt, into
// a model's native chat format. The output ends with the assistant header so
// the model continues as the assistant.
type Template struct {
	Name   string
	render func(b *strings.Builder, system, prompt string)
}

// Render formats prompt for the model.
func (t Template) Render(system, prompt string) string {
	var b strings.Builder
	t.render(&b, strings.TrimSpace(system), prompt)
	return b.String()
}

var templates = map[string]Template{
	"llama3": {Name: "llama3", render: func(b *strings.Builder, system, prompt string) {
		b.WriteString("<|begin_of_text|>")
		if system != "" {
			b.WriteString("<|start_header_id|>system<|end_header_id|>\n\n")
			b.WriteString(system)
			b.WriteString("<|eot_id|>")
		}
		b.WriteString("<|start_header_id|>user<|end_header_id|>\n\n")
		b.WriteString(prompt)
		b.WriteString("<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n")
	}},
	"chatml": {Name: "chatml", render: func(b *strings.Builder, system, prompt string) {
		if system != "" {
			b.WriteString("<|im_start|>system\n")
			b.WriteString(system)
			b.WriteString("<|im_end|>\n")
		}
		b.WriteString("<|im_start|>user\n")
		b.WriteString(prompt)
		b.WriteString("<|im_end|>\n<|im_start|>assistant\n")
	}},
	// Gemma has no system role; the system prompt is folded into the user turn.
	"gemma": {Name: "gemma", render: func(b *strings.Builder, system, prompt string) {
		b.WriteString("<start_of_turn>user\n")
		if system != "" {
			b.WriteString(system)
			b.WriteString("\n\n")
		}
		b.WriteString(prompt)
		b.WriteString("<end_of_turn>\n<start_of_turn>model\n")
	}},
	"mistral": {Name: "mistral", render: func(b *strings.Builder, system, prompt string) {
		b.WriteString("<s>[INST] ")
		if system != "" {
			b.WriteString(system)
			b.WriteString("\n\n")
		}
		b.WriteString(prompt)
		b.WriteString(" [/INST]")
	}},
}

// LookupTemplate returns the named template. The empty name is not a
// template; callers treat it as "let the server apply its own".
func LookupTemplate(name string) (Template, error) {
	t, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Template{}, fmt.Errorf("unknown chat template %q (known: %s)", name, strings.Join(TemplateNames(), ", "))
	}
	return t, nil
}

// TemplateNames lists the built-in templates in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
