package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderMarkdownWithError_ZeroWidth_DoesNotError(t *testing.T) {
	_, err := RenderMarkdownWithError("# title", 0)
	if err != nil {
		t.Fatalf("RenderMarkdownWithError must not fail for zero width: %v", err)
	}
}

func TestRenderMarkdownKeepsText(t *testing.T) {
	out := ansi.Strip(RenderMarkdown("**You**: hello", 40))
	if !strings.Contains(out, "You") || !strings.Contains(out, "hello") {
		t.Fatalf("rendered output lost text: %q", out)
	}
	if strings.Contains(out, "**") {
		t.Fatalf("bold markers were not rendered: %q", out)
	}
	if RenderMarkdown("", 40) != "" {
		t.Fatal("empty content should render empty")
	}
}

func TestRenderMarkdownRebuildsOnWidthChange(t *testing.T) {
	long := strings.Repeat("word ", 30)
	narrow := ansi.Strip(RenderMarkdown(long, 20))
	wide := ansi.Strip(RenderMarkdown(long, 100))
	if strings.Count(narrow, "\n") <= strings.Count(wide, "\n") {
		t.Fatalf("narrow render should wrap more lines:\nnarrow=%q\nwide=%q", narrow, wide)
	}
}
