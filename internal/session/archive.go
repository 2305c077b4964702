package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// Archiver copies transcript turns into a Store as they are appended.
// Observe runs on the interactive context, so writes are handed to a
// background goroutine; a failed write is logged and never reaches the
// transcript.
type Archiver struct {
	store   Store
	session *Session
	logger  *zap.Logger

	turns chan conversation.Turn
	once  sync.Once
	done  chan struct{}
}

// NewArchiver creates the session record and starts the writer.
func NewArchiver(ctx context.Context, store Store, sess *Session, logger *zap.Logger) (*Archiver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := store.Create(ctx, sess); err != nil {
		return nil, err
	}

	a := &Archiver{
		store:   store,
		session: sess,
		logger:  logger.Named("session").With(zap.String("session_id", sess.ID)),
		turns:   make(chan conversation.Turn, 64),
		done:    make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Session returns the archived session.
func (a *Archiver) Session() *Session {
	return a.session
}

// Observe queues turn for archiving. Register it with Store.OnAppend.
func (a *Archiver) Observe(turn conversation.Turn) {
	select {
	case <-a.done:
		return
	default:
	}
	a.turns <- turn
}

func (a *Archiver) run() {
	defer close(a.done)
	for turn := range a.turns {
		if err := a.store.AppendTurn(context.Background(), a.session.ID, turn); err != nil {
			a.logger.Warn("failed to archive turn", zap.Uint64("sequence", turn.Sequence), zap.Error(err))
		}
	}
}

// Close flushes queued turns. Observe must not be called after Close.
func (a *Archiver) Close() {
	a.once.Do(func() {
		close(a.turns)
		<-a.done
	})
}
