package backend

import (
	"strings"
	"testing"
)

func TestTemplatesEndWithAssistantHeader(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
	}{
		{"llama3", "<|start_header_id|>assistant<|end_header_id|>\n\n"},
		{"chatml", "<|im_start|>assistant\n"},
		{"gemma", "<start_of_turn>model\n"},
		{"mistral", " [/INST]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := LookupTemplate(tc.name)
			if err != nil {
				t.Fatalf("LookupTemplate: %v", err)
			}
			out := tmpl.Render("", "hello")
			if !strings.Contains(out, "hello") {
				t.Fatalf("rendered prompt missing user text: %q", out)
			}
			if !strings.HasSuffix(out, tc.suffix) {
				t.Fatalf("rendered prompt %q does not end with %q", out, tc.suffix)
			}
		})
	}
}

func TestTemplateSystemPrompt(t *testing.T) {
	tmpl, err := LookupTemplate("chatml")
	if err != nil {
		t.Fatal(err)
	}
	got := tmpl.Render("  be brief  ", "hi")
	want := "<|im_start|>system\nbe brief<|im_end|>\n<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\n"
	if got != want {
		t.Fatalf("Render()=%q, want %q", got, want)
	}

	noSystem := tmpl.Render("", "hi")
	if strings.Contains(noSystem, "system") {
		t.Fatalf("empty system prompt rendered a system block: %q", noSystem)
	}
}

func TestLookupTemplate(t *testing.T) {
	if _, err := LookupTemplate(" Llama3 "); err != nil {
		t.Fatalf("lookup should ignore case and spaces: %v", err)
	}
	if _, err := LookupTemplate("vicuna"); err == nil {
		t.Fatal("expected error for unknown template")
	}
	names := TemplateNames()
	if strings.Join(names, ",") != "chatml,gemma,llama3,mistral" {
		t.Fatalf("TemplateNames()=%v", names)
	}
}
