package conversation

import (
	"errors"
	"slices"
	"testing"
)

func TestAppendUserTurnRejectsEmptyInput(t *testing.T) {
	s := NewStore()

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if _, err := s.AppendUserTurn(input); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("AppendUserTurn(%q) error = %v, want ErrEmptyInput", input, err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty transcript, got %d turns", s.Len())
	}
}

func TestAppendUserTurnTrimsText(t *testing.T) {
	s := NewStore()

	turn, err := s.AppendUserTurn("  hello there \n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Text != "hello there" {
		t.Fatalf("text=%q, want %q", turn.Text, "hello there")
	}
	if turn.Role != RoleUser || !turn.IsUser() {
		t.Fatalf("role=%q, want user", turn.Role)
	}
}

func TestAppendAssistantTurnAcceptsEmptyText(t *testing.T) {
	s := NewStore()

	turn := s.AppendAssistantTurn("")
	if turn.Role != RoleAssistant {
		t.Fatalf("role=%q, want assistant", turn.Role)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", s.Len())
	}
	last, ok := s.Last()
	if !ok || last.Text != "" {
		t.Fatalf("expected empty assistant text to be stored verbatim, got %q", last.Text)
	}
}

func TestSequencesStrictlyIncrease(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("a")
	s.AppendAssistantTurn("A")
	s.AppendErrorTurn(7, "Error: boom")
	s.AppendResponse(8, "B")
	s.AppendUserTurn("b")

	var prev uint64
	for turn := range s.Snapshot() {
		if turn.Sequence <= prev {
			t.Fatalf("sequence %d not greater than previous %d", turn.Sequence, prev)
		}
		prev = turn.Sequence
	}
	if prev != 5 {
		t.Fatalf("last sequence=%d, want 5", prev)
	}
}

func TestSnapshotIsRestartableAndStable(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("one")
	s.AppendAssistantTurn("two")

	snap := s.Snapshot()
	first := slices.Collect(snap)

	s.AppendUserTurn("three")

	second := slices.Collect(snap)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("snapshot lengths=%d,%d, want 2,2", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("snapshot changed at %d: %+v != %+v", i, first[i], second[i])
		}
	}
	if got := len(slices.Collect(s.Snapshot())); got != 3 {
		t.Fatalf("fresh snapshot length=%d, want 3", got)
	}
}

func TestSnapshotStopsEarly(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("one")
	s.AppendUserTurn("two")
	s.AppendUserTurn("three")

	count := 0
	for range s.Snapshot() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("count=%d, want 2", count)
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("original")

	turns := s.Turns()
	turns[0].Text = "mutated"

	last, _ := s.Last()
	if last.Text != "original" {
		t.Fatalf("store was mutated through Turns(): %q", last.Text)
	}
}

func TestOnAppendObservesEveryTurn(t *testing.T) {
	s := NewStore()
	var seen []Turn
	s.OnAppend(func(turn Turn) { seen = append(seen, turn) })

	s.AppendUserTurn("hi")
	s.AppendUserTurn("   ")
	s.AppendErrorTurn(3, "Error: nope")

	if len(seen) != 2 {
		t.Fatalf("observer saw %d turns, want 2", len(seen))
	}
	if !seen[1].Failed || seen[1].RequestID != 3 {
		t.Fatalf("expected failed turn for request 3, got %+v", seen[1])
	}
}

func TestTurnMarkdown(t *testing.T) {
	user := Turn{Role: RoleUser, Text: "hello"}
	if got := user.Markdown(); got != "**You**: hello" {
		t.Fatalf("user markdown=%q", got)
	}
	assistant := Turn{Role: RoleAssistant, Text: "hi *there*"}
	if got := assistant.Markdown(); got != "hi *there*" {
		t.Fatalf("assistant markdown=%q", got)
	}
}
