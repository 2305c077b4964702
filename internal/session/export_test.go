package session

import (
	"strings"
	"testing"
	"time"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

func TestExportToMarkdown(t *testing.T) {
	sess := &Session{
		ID:        "20240115-143052-a1b2c3",
		Provider:  "ollama",
		Model:     "llama3.2",
		CreatedAt: time.Date(2024, 1, 15, 14, 30, 52, 0, time.UTC),
	}
	turns := []conversation.Turn{
		{Role: conversation.RoleUser, Text: "hello", Sequence: 1},
		{Role: conversation.RoleAssistant, Text: "hi", Sequence: 2},
		{Role: conversation.RoleUser, Text: "x", Sequence: 3},
		{Role: conversation.RoleAssistant, Text: "Error: timeout\nretry later", Sequence: 4, Failed: true},
	}

	md := ExportToMarkdown(sess, turns)

	for _, want := range []string{
		"# Llama Chat: 240115-1430",
		"| **Model** | llama3.2 |",
		"| **Created** | 2024-01-15 14:30 UTC |",
		"| **Turns** | 4 |",
		"**You**: hello\n\nhi\n\n",
		"> Error: timeout\n> retry later\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("export missing %q:\n%s", want, md)
		}
	}
}

func TestExportToMarkdownWithoutSession(t *testing.T) {
	md := ExportToMarkdown(nil, []conversation.Turn{{Role: conversation.RoleUser, Text: "hey"}})
	if !strings.HasPrefix(md, "# Llama Chat\n\n---\n\n") {
		t.Fatalf("unexpected header:\n%s", md)
	}
	if strings.Contains(md, "| **Session**") {
		t.Fatal("table rendered without a session")
	}
}

func TestEscapeTableCell(t *testing.T) {
	if got := escapeTableCell("a|b\nc"); got != `a\|b c` {
		t.Fatalf("escapeTableCell=%q", got)
	}
}
