// Package sqlite implements durable local key-value storage on a SQLite
// file, standing in for the browser's localStorage.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/edgestore/storefront/internal/domain/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv(
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// Storage keys, mirroring the two durable entries the client persists.
const (
	keyToken = "token"
	keyUser  = "user"
)

var _ session.Store = (*SessionStore)(nil)

// SessionStore implements session.Store backed by a local SQLite file.
type SessionStore struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the SQLite database at dsn and ensures
// the schema exists. Use ":memory:" for an ephemeral store in tests.
func Open(dsn string) (*SessionStore, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping sqlite")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "ensure schema")
	}
	return &SessionStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database file is still reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save persists the token and user durably, overwriting any prior session.
func (s *SessionStore) Save(ctx context.Context, token string, user session.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO kv(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, keyToken, token); err != nil {
		return errors.Wrap(err, "save token")
	}
	if _, err := tx.ExecContext(ctx, upsert, keyUser, string(user.Raw)); err != nil {
		return errors.Wrap(err, "save user")
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// Load reconstructs the stored session. It returns (nil, nil) when no token
// is present or the stored user is malformed: bad durable state degrades to
// "no session" instead of failing startup.
func (s *SessionStore) Load(ctx context.Context) (*session.Session, error) {
	token, err := s.get(ctx, keyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	rawUser, err := s.get(ctx, keyUser)
	if err != nil {
		return nil, err
	}
	user, err := session.DecodeUser([]byte(rawUser))
	if err != nil {
		return nil, nil
	}

	return &session.Session{Token: token, User: user}, nil
}

// Clear erases all durable session state.
func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (?, ?)`, keyToken, keyUser)
	return errors.Wrap(err, "clear")
}

func (s *SessionStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "get %q", key)
	}
	return value, nil
}
