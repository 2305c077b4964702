package conversation

import (
	"errors"
	"iter"
	"slices"
	"strings"
	"time"
)

// ErrEmptyInput is returned when user input is empty after trimming
// surrounding whitespace.
var ErrEmptyInput = errors.New("empty input")

// Store is the single source of truth for the transcript.
//
// Store does no locking. Every call must happen on the interactive context
// that owns the transcript (the TUI update loop or an inference.Loop).
type Store struct {
	turns     []Turn
	seq       uint64
	observers []func(Turn)
	now       func() time.Time
}

// NewStore creates an empty transcript.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// ValidateInput trims text and reports ErrEmptyInput when nothing is left.
func ValidateInput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	return trimmed, nil
}

// AppendUserTurn appends a user turn holding the trimmed text.
func (s *Store) AppendUserTurn(text string) (Turn, error) {
	trimmed, err := ValidateInput(text)
	if err != nil {
		return Turn{}, err
	}
	return s.append(Turn{Role: RoleUser, Text: trimmed}), nil
}

// AppendAssistantTurn appends an assistant turn. Empty text is valid and is
// stored verbatim.
func (s *Store) AppendAssistantTurn(text string) Turn {
	return s.append(Turn{Role: RoleAssistant, Text: text})
}

// AppendResponse appends the assistant turn produced by the given request.
func (s *Store) AppendResponse(requestID uint64, text string) Turn {
	return s.append(Turn{Role: RoleAssistant, Text: text, RequestID: requestID})
}

// AppendErrorTurn appends an assistant turn describing a failed request.
func (s *Store) AppendErrorTurn(requestID uint64, message string) Turn {
	return s.append(Turn{Role: RoleAssistant, Text: message, RequestID: requestID, Failed: true})
}

func (s *Store) append(t Turn) Turn {
	s.seq++
	t.Sequence = s.seq
	t.CreatedAt = s.now()
	s.turns = append(s.turns, t)
	for _, fn := range s.observers {
		fn(t)
	}
	return t
}

// OnAppend registers fn to be called after every append, on the same context
// that performed the append.
func (s *Store) OnAppend(fn func(Turn)) {
	s.observers = append(s.observers, fn)
}

// Len returns the number of turns in the transcript.
func (s *Store) Len() int {
	return len(s.turns)
}

// Last returns the most recent turn.
func (s *Store) Last() (Turn, bool) {
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// Turns returns a copy of the transcript.
func (s *Store) Turns() []Turn {
	return slices.Clone(s.turns)
}

// Snapshot returns a lazy, restartable sequence over the turns present at the
// time of the call. Later appends are not visible through it.
func (s *Store) Snapshot() iter.Seq[Turn] {
	view := s.turns[:len(s.turns):len(s.turns)]
	return func(yield func(Turn) bool) {
		for _, t := range view {
			if !yield(t) {
				return
			}
		}
	}
}
