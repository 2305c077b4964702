package session

import (
	"context"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// NoopStore is used when archiving is disabled. Writes are discarded and
// reads find nothing.
type NoopStore struct{}

func (NoopStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = NewID()
	}
	return nil
}

func (NoopStore) Get(ctx context.Context, idOrPrefix string) (*Session, error) {
	return nil, ErrNotFound
}

func (NoopStore) List(ctx context.Context, limit int) ([]Summary, error) {
	return nil, nil
}

func (NoopStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return nil, nil
}

func (NoopStore) AppendTurn(ctx context.Context, sessionID string, turn conversation.Turn) error {
	return nil
}

func (NoopStore) Turns(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	return nil, nil
}

func (NoopStore) Close() error {
	return nil
}
