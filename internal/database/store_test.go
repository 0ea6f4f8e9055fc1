package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallubot/wallu-telegram/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "data", "wallu_telegram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "ping.db"))
	require.NoError(t, err)
	store := database.NewStore(db, nil)
	require.NoError(t, store.Ping(context.Background()))

	database.CloseDB(db)
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_UpsertGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	got, err := store.GetChatCredential(ctx, "-100123")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.UpsertChatCredential(ctx, &database.ChatCredential{
		ChatID:          "-100123",
		APIKeyEncrypted: "v1:first",
		UpdatedByUserID: "42",
	}))
	require.NoError(t, store.UpsertChatCredential(ctx, &database.ChatCredential{
		ChatID:          "-100123",
		APIKeyEncrypted: "v1:second",
		UpdatedByUserID: "43",
	}))

	got, err = store.GetChatCredential(ctx, "-100123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v1:second", got.APIKeyEncrypted)
	assert.Equal(t, "43", got.UpdatedByUserID)

	deleted, err := store.DeleteChatCredential(ctx, "-100123")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteChatCredential(ctx, "-100123")
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err = store.GetChatCredential(ctx, "-100123")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	assert.Error(t, store.UpsertChatCredential(ctx, nil))
	assert.Error(t, store.UpsertChatCredential(ctx, &database.ChatCredential{APIKeyEncrypted: "v1:x"}))
	assert.Error(t, store.UpsertChatCredential(ctx, &database.ChatCredential{ChatID: "1"}))

	_, err := store.GetChatCredential(ctx, "")
	assert.Error(t, err)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wallu.db")
	first, err := database.NewDB(path)
	require.NoError(t, err)
	database.CloseDB(first)

	second, err := database.NewDB(path)
	require.NoError(t, err)
	defer database.CloseDB(second)

	require.NoError(t, database.ApplyMigrations(second.DB))
	require.NoError(t, database.NewStore(second, nil).RunSQLMaintenance(context.Background()))
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "data/wallu.db", expected: "data/wallu.db"},
		{input: "file:data/wallu.db?_pragma=busy_timeout(5000)", expected: "data/wallu.db"},
		{input: "file:my%20db.db", expected: "my db.db"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, database.ExtractDBNameFromPath(tc.input))
	}
}
