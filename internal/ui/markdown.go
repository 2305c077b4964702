package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// Package-level renderer cache; building a glamour renderer is expensive and
// the chat screen re-renders on every resize.
var mdRendererCache struct {
	sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

var (
	darkBackground     bool
	darkBackgroundOnce sync.Once
)

// DetectBackground queries the terminal background once. Call it before a
// full-screen program takes over the terminal; later calls are free.
func DetectBackground() {
	darkBackgroundOnce.Do(func() {
		darkBackground = termenv.HasDarkBackground()
	})
}

// GlamourStyle returns the markdown style matching the terminal background.
func GlamourStyle() ansi.StyleConfig {
	DetectBackground()
	if darkBackground {
		return styles.DarkStyleConfig
	}
	return styles.LightStyleConfig
}

// RenderMarkdown renders content with glamour. On error the content is
// returned unchanged.
func RenderMarkdown(content string, width int) string {
	if content == "" {
		return ""
	}
	rendered, err := RenderMarkdownWithError(content, width)
	if err != nil {
		return content
	}
	return rendered
}

// RenderMarkdownWithError renders content and reports renderer errors.
func RenderMarkdownWithError(content string, width int) (string, error) {
	if width < 0 {
		width = 0
	}

	mdRendererCache.Lock()
	defer mdRendererCache.Unlock()

	if mdRendererCache.renderer == nil || mdRendererCache.width != width {
		style := GlamourStyle()
		margin := uint(0)
		style.Document.Margin = &margin
		style.Document.BlockPrefix = ""
		style.Document.BlockSuffix = ""
		style.CodeBlock.Margin = &margin

		renderer, err := glamour.NewTermRenderer(
			glamour.WithStyles(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		mdRendererCache.renderer = renderer
		mdRendererCache.width = width
	}

	rendered, err := mdRendererCache.renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rendered), nil
}
