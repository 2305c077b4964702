// Package conversation holds the chat transcript: an append-only, ordered
// list of turns authored by the user or the assistant.
package conversation

import "time"

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single transcript entry. Turns are values and are never modified
// after they have been appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`

	// RequestID is the inference request that produced an assistant turn.
	// Zero for user turns.
	RequestID uint64 `json:"request_id,omitempty"`

	// Failed marks an assistant turn that reports a backend failure.
	Failed bool `json:"failed,omitempty"`
}

// IsUser reports whether the turn was authored by the user.
func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}

// Markdown renders the turn the way the chat screen shows it: user turns are
// prefixed with a bold "You" label, assistant turns are shown as-is.
func (t Turn) Markdown() string {
	if t.IsUser() {
		return "**You**: " + t.Text
	}
	return t.Text
}
