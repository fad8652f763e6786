package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := Open(database.Config{Path: filepath.Join(t.TempDir(), "console.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLocalStore_GetSetDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "theme", "dark"))
	require.NoError(t, store.Set(ctx, "theme", "light"))
	v, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	require.NoError(t, store.Delete(ctx, "theme"))
	require.NoError(t, store.Delete(ctx, "theme"))
	_, err = store.Get(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_TokenAndUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	token, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	name := "Ana Lima"
	require.NoError(t, store.SaveToken(ctx, "tok-1"))
	require.NoError(t, store.SaveUser(ctx, &entity.User{ID: 4, Email: "ana@corp.io", FullName: &name, Role: entity.RoleAdmin}))

	token, err = store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	user, err := store.LoadUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ana Lima", user.DisplayName())
	assert.True(t, user.IsAdmin())

	require.NoError(t, store.ClearToken(ctx))
	token, err = store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err = store.LoadUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLocalStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.db")
	ctx := context.Background()

	store, err := Open(database.Config{Path: path}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.SaveToken(ctx, "persisted"))
	require.NoError(t, store.Close())

	store, err = Open(database.Config{Path: path}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	token, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
}

func TestExportStorage_SaveAndList(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	exports := NewExportStorage(filepath.Join(dir, "exports"), store, zap.NewNop())
	ctx := context.Background()

	path, err := exports.Save(ctx, "slips.csv", "salary_slips_2024-03.csv", []byte("ID\n1\n"), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "salary_slips_2024-03.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID\n1\n", string(content))

	_, err = exports.Save(ctx, "expenses.xlsx", "expenses.xlsx", []byte("x"), 3)
	require.NoError(t, err)

	recent, err := exports.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "expenses.xlsx", recent[0].Kind)
	assert.Equal(t, 3, recent[0].Rows)
}

func TestExportStorage_NamesCannotEscape(t *testing.T) {
	dir := t.TempDir()
	exports := NewExportStorage(dir, nil, zap.NewNop())

	path, err := exports.Save(context.Background(), "slips.csv", "../../etc/passwd", []byte("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etcpasswd"), path)

	assert.Error(t, exports.ValidatePath(filepath.Join(dir, "..", "outside.csv")))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"expenses.csv", "expenses.csv"},
		{"Salary Slip 2024-03.pdf", "Salary_Slip_2024-03.pdf"},
		{"../secret", "secret"},
		{"..", "export"},
		{"a/b\\c", "abc"},
		{"note$#!.txt", "note.txt"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
