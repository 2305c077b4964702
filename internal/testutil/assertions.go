// Package testutil holds assertions shared by rendering tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// AssertContainsPlain fails if output (after stripping ANSI) does not contain expected.
func AssertContainsPlain(t *testing.T, output, expected string) {
	t.Helper()
	plain := ansi.Strip(output)
	if !strings.Contains(plain, expected) {
		t.Errorf("output does not contain expected string\nExpected to find: %q\nIn output (plain):\n%s", expected, truncateForError(plain))
	}
}

// AssertNotContainsPlain fails if output (after stripping ANSI) contains unexpected.
func AssertNotContainsPlain(t *testing.T, output, unexpected string) {
	t.Helper()
	plain := ansi.Strip(output)
	if strings.Contains(plain, unexpected) {
		t.Errorf("output contains unexpected string\nDid not expect to find: %q\nIn output (plain):\n%s", unexpected, truncateForError(plain))
	}
}

// AssertOrderPlain fails unless each of want appears in output after the one before it.
func AssertOrderPlain(t *testing.T, output string, want ...string) {
	t.Helper()
	plain := ansi.Strip(output)
	rest := plain
	for _, w := range want {
		i := strings.Index(rest, w)
		if i < 0 {
			t.Errorf("expected %q in order %q\nIn output (plain):\n%s", w, want, truncateForError(plain))
			return
		}
		rest = rest[i+len(w):]
	}
}

// truncateForError truncates output for error messages to avoid huge logs.
func truncateForError(s string) string {
	const maxLen = 2000
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "\n... [truncated]"
}
