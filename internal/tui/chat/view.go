package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/ui"
)

const title = "Llama Chat"

func (m *Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	parts := []string{m.headerView(), m.viewport.View()}
	if status := m.statusView(); status != "" {
		parts = append(parts, status)
	}
	if s := m.suggestionsView(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, m.inputView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) headerView() string {
	text := title
	if name := m.coord.BackendName(); name != "" {
		text += " · " + name
	} else {
		text += " · no model loaded"
	}
	return m.styles.Header.Width(m.width).Render(ui.Truncate(text, m.width-2))
}

func (m *Model) statusView() string {
	if m.spinning {
		return m.spinner.View() + " " + m.styles.Muted.Render("Thinking… (esc to cancel)")
	}
	if m.status == "" {
		return ""
	}
	lines := strings.Split(m.status, "\n")
	for i, line := range lines {
		lines[i] = ui.Truncate(line, m.width)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) suggestionsView() string {
	if len(m.suggestions) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range m.suggestions {
		if i > 0 {
			b.WriteString("\n")
		}
		name := "/" + c.Name
		if i == m.selected {
			name = m.styles.Selected.Render(name)
		}
		b.WriteString(ui.Truncate("  "+name+"  "+m.styles.Muted.Render(c.Description), m.width))
	}
	return b.String()
}

func (m *Model) inputView() string {
	return m.styles.Input.Width(max(m.width-2, 1)).Render(m.textarea.View())
}

// layout sizes the viewport to whatever the header, status and composer
// leave over.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.textarea.SetHeight(m.inputLines())

	used := lipgloss.Height(m.headerView()) + lipgloss.Height(m.inputView())
	if s := m.statusView(); s != "" {
		used += lipgloss.Height(s)
	}
	if s := m.suggestionsView(); s != "" {
		used += lipgloss.Height(s)
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-used, 1)
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the
// newest turn.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	width := max(m.width-2, 10)
	if width != m.renderWidth {
		clear(m.rendered)
		m.renderWidth = width
	}

	var b strings.Builder
	if m.welcome != "" {
		b.WriteString(m.styles.Muted.Render(m.welcome))
		b.WriteString("\n\n")
	}
	for turn := range m.store.Snapshot() {
		out, ok := m.rendered[turn.Sequence]
		if !ok {
			out = m.renderTurn(turn, width)
			m.rendered[turn.Sequence] = out
		}
		b.WriteString(out)
		b.WriteString("\n\n")
	}

	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderTurn(turn conversation.Turn, width int) string {
	if turn.Failed {
		return m.styles.ErrorTurn.Width(width).Render(turn.Text)
	}
	return ui.RenderMarkdown(turn.Markdown(), width)
}
