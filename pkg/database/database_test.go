package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "nested", "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_AppliesInOrderOnce(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"migrations/002_add_note.sql": {Data: []byte(`ALTER TABLE items ADD COLUMN note TEXT;`)},
		"migrations/001_items.sql":    {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)},
		"migrations/README.md":        {Data: []byte(`ignored`)},
	}

	m := NewMigrator(db, zap.NewNop())
	require.NoError(t, m.Run(fsys, "migrations"))
	require.NoError(t, m.Run(fsys, "migrations"))

	applied, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, applied)

	_, err = db.Exec(`INSERT INTO items (name, note) VALUES ('a', 'b')`)
	assert.NoError(t, err)
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"m/init.sql": {Data: []byte(`SELECT 1;`)}}, "m")
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"m/001_a.sql": {Data: []byte(`SELECT 1;`)},
		"m/1_b.sql":   {Data: []byte(`SELECT 1;`)},
	}, "m")
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO kv (k) VALUES ('x')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}
