// Package session archives chat transcripts to SQLite so they can be listed,
// shown and exported after the chat screen is closed. Archiving is optional;
// the in-memory conversation.Store stays the source of truth.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// ErrNotFound is returned when no session matches an ID or prefix.
var ErrNotFound = errors.New("session not found")

// Session is one archived chat.
type Session struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is a Session as shown by `sessions list`.
type Summary struct {
	Session
	TurnCount int
	// Preview is the text of the first user turn.
	Preview string
}

// SearchResult is a turn matching a full-text query.
type SearchResult struct {
	SessionID string
	Sequence  uint64
	Role      conversation.Role
	Snippet   string
	CreatedAt time.Time
}

// Config controls where and whether sessions are archived.
type Config struct {
	Enabled bool
	// Path overrides the database location.
	Path string
}

// Store persists sessions and their turns.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, idOrPrefix string) (*Session, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AppendTurn(ctx context.Context, sessionID string, turn conversation.Turn) error
	Turns(ctx context.Context, sessionID string) ([]conversation.Turn, error)
	Close() error
}

// Open returns a SQLite store when cfg.Enabled and a NoopStore otherwise.
func Open(cfg Config) (Store, error) {
	if !cfg.Enabled {
		return NoopStore{}, nil
	}
	return NewSQLiteStore(cfg)
}

// GetDBPath returns the database location: cfg.Path if set, otherwise
// $XDG_DATA_HOME/llama-chat/sessions.db.
func GetDBPath(cfg Config) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "llama-chat", "sessions.db"), nil
}
