package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })
	return NewSQLStore(sqlx.NewDb(mockDb, "postgres")), mock
}

func TestSQLStoreGet(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT value FROM kv_entries WHERE namespace = \$1 AND id = \$2`).
		WithArgs(NamespaceSubscriptions, "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"id":"sub-1"}`))
	mock.ExpectQuery(`SELECT value FROM kv_entries`).
		WithArgs(NamespaceSubscriptions, "missing").
		WillReturnError(sql.ErrNoRows)

	value, err := s.Get(ctx, NamespaceSubscriptions, "sub-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"sub-1"}`, string(value))

	_, err = s.Get(ctx, NamespaceSubscriptions, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorePutAndDelete(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO kv_entries \(namespace, id, value\) VALUES \(\$1, \$2, \$3\) ON CONFLICT`).
		WithArgs(NamespaceNotifications, "n-1", `{"id":"n-1"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM kv_entries WHERE namespace = \$1 AND id = \$2`).
		WithArgs(NamespaceNotifications, "n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM kv_entries`).
		WithArgs(NamespaceNotifications, "n-2").
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, s.Put(ctx, NamespaceNotifications, "n-1", []byte(`{"id":"n-1"}`)))
	require.NoError(t, s.Delete(ctx, NamespaceNotifications, "n-1"))

	err := s.Delete(ctx, NamespaceNotifications, "n-2")
	assert.ErrorContains(t, err, "connection reset")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreList(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"namespace", "id", "value"}).
		AddRow(NamespaceNotifications, "a", `{"id":"a"}`).
		AddRow(NamespaceNotifications, "b", `{"id":"b"}`)
	mock.ExpectQuery(`SELECT namespace, id, value FROM kv_entries WHERE namespace = \$1 ORDER BY id`).
		WithArgs(NamespaceNotifications).
		WillReturnRows(rows)

	entries, err := s.List(context.Background(), NamespaceNotifications)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, `{"id":"b"}`, string(entries[1].Value))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "webhub.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Put(ctx, NamespaceSubscriptions, "b", []byte("2")))
	require.NoError(t, s.Put(ctx, NamespaceSubscriptions, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, NamespaceNotifications, "x", []byte("9")))
	// upsert replaces the value
	require.NoError(t, s.Put(ctx, NamespaceSubscriptions, "b", []byte("3")))

	entries, err := s.List(ctx, NamespaceSubscriptions)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "3", string(entries[1].Value))

	require.NoError(t, s.Delete(ctx, NamespaceSubscriptions, "a"))
	require.NoError(t, s.Delete(ctx, NamespaceSubscriptions, "never-existed"))

	_, err = s.Get(ctx, NamespaceSubscriptions, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	value, err := s.Get(ctx, NamespaceNotifications, "x")
	require.NoError(t, err)
	assert.Equal(t, "9", string(value))
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
