package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	namespace TEXT NOT NULL,
	id        TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (namespace, id)
)`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore keeps entries in a single kv_entries table. It works against
// both postgres and sqlite; queries are rebound to the driver's placeholders.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an existing connection. The schema is not created.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenPostgres connects to postgres and makes sure the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return open(ctx, db)
}

// OpenSQLite opens (creating if needed) the sqlite database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	return open(ctx, db)
}

func open(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return NewSQLStore(db), nil
}

func (s *SQLStore) Get(ctx context.Context, namespace, id string) ([]byte, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		s.db.Rebind("SELECT value FROM kv_entries WHERE namespace = ? AND id = ?"),
		namespace, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, id, err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Put(ctx context.Context, namespace, id string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO kv_entries (namespace, id, value) VALUES (?, ?, ?)
		ON CONFLICT (namespace, id) DO UPDATE SET value = excluded.value`),
		namespace, id, string(value))
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", namespace, id, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, namespace, id string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM kv_entries WHERE namespace = ? AND id = ?"),
		namespace, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, id, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, namespace string) ([]Entry, error) {
	var rows []struct {
		Namespace string `db:"namespace"`
		ID        string `db:"id"`
		Value     string `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind("SELECT namespace, id, value FROM kv_entries WHERE namespace = ? ORDER BY id"),
		namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", namespace, err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{Namespace: r.Namespace, ID: r.ID, Value: []byte(r.Value)})
	}
	return entries, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
