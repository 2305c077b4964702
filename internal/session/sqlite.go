package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    text TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    request_id INTEGER NOT NULL DEFAULT 0,
    failed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (session_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);

CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
    text,
    content='turns',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS turns_ai AFTER INSERT ON turns BEGIN
    INSERT INTO turns_fts(rowid, text) VALUES (new.id, new.text);
END;

CREATE TRIGGER IF NOT EXISTS turns_ad AFTER DELETE ON turns BEGIN
    INSERT INTO turns_fts(turns_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

// schemaVersion is bumped whenever schema changes shape.
const schemaVersion = 1

// NewSQLiteStore opens (creating if needed) the session database.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dbPath, err := GetDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("get db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// initSchema creates the schema on a fresh database and refuses to open one
// written by a newer version.
func initSchema(db *sql.DB) error {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err == nil {
		if version > schemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
		}
		return nil
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}
	return nil
}

// Create inserts a new session, filling in ID and timestamps if unset.
func (s *SQLiteStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = NewID()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, provider, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Provider, sess.Model, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get finds a session by full ID or by a unique ID prefix.
func (s *SQLiteStore) Get(ctx context.Context, idOrPrefix string) (*Session, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, created_at, updated_at
		FROM sessions
		WHERE id = ? OR id LIKE ? ESCAPE '\'
		ORDER BY (id = ?) DESC, updated_at DESC
		LIMIT 2`, idOrPrefix, escapeLike(idOrPrefix)+"%", idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	var found []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Provider, &sess.Model, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		found = append(found, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case found[0].ID == idOrPrefix || len(found) == 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("session prefix %q is ambiguous", idOrPrefix)
	}
}

// List returns the most recently updated sessions first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.provider, s.model, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM turns WHERE session_id = s.id),
		       COALESCE((SELECT text FROM turns WHERE session_id = s.id AND role = 'user'
		                 ORDER BY sequence LIMIT 1), '')
		FROM sessions s
		ORDER BY s.updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var results []Summary
	for rows.Next() {
		var sum Summary
		err := rows.Scan(&sum.ID, &sum.Provider, &sum.Model, &sum.CreatedAt, &sum.UpdatedAt,
			&sum.TurnCount, &sum.Preview)
		if err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		results = append(results, sum)
	}
	return results, rows.Err()
}

// Search finds turns containing query using FTS5.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.session_id, t.sequence, t.role, snippet(turns_fts, 0, '**', '**', '...', 32), t.created_at
		FROM turns_fts f
		JOIN turns t ON t.id = f.rowid
		WHERE turns_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var role string
		if err := rows.Scan(&r.SessionID, &r.Sequence, &role, &r.Snippet, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		r.Role = conversation.Role(role)
		results = append(results, r)
	}
	return results, rows.Err()
}

// AppendTurn archives one transcript turn.
func (s *SQLiteStore) AppendTurn(ctx context.Context, sessionID string, turn conversation.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, role, text, sequence, request_id, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(turn.Role), turn.Text, turn.Sequence, turn.RequestID, turn.Failed, createdAt)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	_, err = s.db.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("update session timestamp: %w", err)
	}
	return nil
}

// Turns returns a session's turns in sequence order.
func (s *SQLiteStore) Turns(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, text, sequence, request_id, failed, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY sequence ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []conversation.Turn
	for rows.Next() {
		var t conversation.Turn
		var role string
		if err := rows.Scan(&role, &t.Text, &t.Sequence, &t.RequestID, &t.Failed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = conversation.Role(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// IsNotFound reports whether err means no session matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
