package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDB creates a temporary test database
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStorageGetMissingKey(t *testing.T) {
	s := NewStorage(createTestDB(t))

	value, ok, err := s.GetItem(context.Background(), "access_token")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestStorageSetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(createTestDB(t))

	require.NoError(t, s.SetItem(ctx, "user_name", "Ann"))
	require.NoError(t, s.SetItem(ctx, "user_name", "Bob"))

	value, ok, err := s.GetItem(ctx, "user_name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bob", value)
}

func TestStorageRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(createTestDB(t))

	require.NoError(t, s.SetItem(ctx, "a", "1"))
	require.NoError(t, s.SetItem(ctx, "b", "2"))
	require.NoError(t, s.RemoveItem(ctx, "a"))
	require.NoError(t, s.RemoveItem(ctx, "a"), "removing twice must be safe")

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	require.NoError(t, s.Clear(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStoragePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "devapply.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, NewStorage(db).SetItem(ctx, "access_token", "t"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	value, ok, err := NewStorage(db).GetItem(ctx, "access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t", value)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)

	boom := errors.New("boom")
	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		if err := NewStorage(tx).SetItem(ctx, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := NewStorage(db).GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "write inside a failed transaction must be rolled back")
}
