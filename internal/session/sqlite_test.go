package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{Enabled: true, Path: filepath.Join(t.TempDir(), "sessions.db")})
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := &Session{Provider: "ollama", Model: "llama3.2"}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	turns := []conversation.Turn{
		{Role: conversation.RoleUser, Text: "hello", Sequence: 1, CreatedAt: time.Now()},
		{Role: conversation.RoleAssistant, Text: "hi", Sequence: 2, RequestID: 1, CreatedAt: time.Now()},
		{Role: conversation.RoleUser, Text: "x", Sequence: 3, CreatedAt: time.Now()},
		{Role: conversation.RoleAssistant, Text: "Error: timeout", Sequence: 4, RequestID: 2, Failed: true, CreatedAt: time.Now()},
	}
	for _, turn := range turns {
		if err := store.AppendTurn(ctx, sess.ID, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	got, err := store.Turns(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("got %d turns, want %d", len(got), len(turns))
	}
	for i := range turns {
		if got[i].Role != turns[i].Role || got[i].Text != turns[i].Text || got[i].Sequence != turns[i].Sequence {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}
	if !got[3].Failed || got[3].RequestID != 2 {
		t.Errorf("error turn lost flags: %+v", got[3])
	}

	summaries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].TurnCount != 4 || summaries[0].Preview != "hello" {
		t.Errorf("summary=%+v", summaries[0])
	}
}

func TestSQLiteStoreGetByPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"20240115-143052-a1b2c3", "20240115-150000-ffffff", "20240220-090000-000000"} {
		if err := store.Create(ctx, &Session{ID: id, Provider: "echo", Model: "echo"}); err != nil {
			t.Fatal(err)
		}
	}

	sess, err := store.Get(ctx, "20240220")
	if err != nil {
		t.Fatalf("Get by prefix: %v", err)
	}
	if sess.ID != "20240220-090000-000000" {
		t.Fatalf("got %s", sess.ID)
	}

	if _, err := store.Get(ctx, "20240115"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	if _, err := store.Get(ctx, "1999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, "2024011_"); !IsNotFound(err) {
		t.Fatalf("LIKE wildcard should be escaped, err=%v", err)
	}
}

func TestSQLiteStoreSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := &Session{Provider: "ollama", Model: "llama3.2"}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatal(err)
	}
	_ = store.AppendTurn(ctx, sess.ID, conversation.Turn{Role: conversation.RoleUser, Text: "tell me about alpacas", Sequence: 1})
	_ = store.AppendTurn(ctx, sess.ID, conversation.Turn{Role: conversation.RoleAssistant, Text: "llamas are larger", Sequence: 2})

	results, err := store.Search(ctx, "alpacas", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].SessionID != sess.ID || results[0].Role != conversation.RoleUser {
		t.Fatalf("results=%+v", results)
	}
}

func TestSQLiteStoreCustomPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "custom", "sessions.db")

	store, err := NewSQLiteStore(Config{Enabled: true, Path: dbPath})
	if err != nil {
		t.Fatalf("failed to create sqlite store with custom path: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file at %q: %v", dbPath, err)
	}

	// reopening an existing database must not fail
	again, err := NewSQLiteStore(Config{Enabled: true, Path: dbPath})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestOpenDisabledIsNoop(t *testing.T) {
	store, err := Open(Config{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(NoopStore); !ok {
		t.Fatalf("Open(disabled) = %T, want NoopStore", store)
	}
	if _, err := store.Get(context.Background(), "x"); !IsNotFound(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestArchiverCopiesAppendedTurns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	archiver, err := NewArchiver(ctx, store, &Session{Provider: "echo", Model: "echo"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewArchiver: %v", err)
	}

	transcript := conversation.NewStore()
	transcript.OnAppend(archiver.Observe)
	if _, err := transcript.AppendUserTurn("  hello  "); err != nil {
		t.Fatal(err)
	}
	transcript.AppendResponse(1, "hi")
	archiver.Close()
	archiver.Close()

	got, err := store.Turns(ctx, archiver.Session().ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "hello" || got[1].Text != "hi" {
		t.Fatalf("archived turns=%+v", got)
	}
}
