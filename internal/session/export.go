package session

import (
	"fmt"
	"strings"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// escapeTableCell escapes characters that break markdown table cells.
func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// ExportToMarkdown renders a transcript as a markdown document. sess may be
// nil when exporting a transcript that was never archived.
func ExportToMarkdown(sess *Session, turns []conversation.Turn) string {
	var b strings.Builder

	b.WriteString("# Llama Chat")
	if sess != nil {
		fmt.Fprintf(&b, ": %s", ShortID(sess.ID))
	}
	b.WriteString("\n\n")

	if sess != nil {
		b.WriteString("| | |\n")
		b.WriteString("|---|---|\n")
		fmt.Fprintf(&b, "| **Session** | %s |\n", escapeTableCell(sess.ID))
		fmt.Fprintf(&b, "| **Provider** | %s |\n", escapeTableCell(sess.Provider))
		fmt.Fprintf(&b, "| **Model** | %s |\n", escapeTableCell(sess.Model))
		fmt.Fprintf(&b, "| **Created** | %s |\n", sess.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
		fmt.Fprintf(&b, "| **Turns** | %d |\n\n", len(turns))
	}

	b.WriteString("---\n\n")

	for _, turn := range turns {
		if turn.Failed {
			// error turns are quoted so they stand apart from model output
			for line := range strings.SplitSeq(turn.Text, "\n") {
				b.WriteString("> ")
				b.WriteString(line)
				b.WriteString("\n")
			}
			b.WriteString("\n")
			continue
		}
		b.WriteString(turn.Markdown())
		b.WriteString("\n\n")
	}

	return b.String()
}
