package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- comment; with a semicolon
CREATE TABLE a (x TEXT DEFAULT 'a;b');
/* block; comment */ INSERT INTO a VALUES ('it''s');;
SELECT "semi;colon" FROM a`

	got := splitStatements(input)
	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT DEFAULT 'a;b')", got[0])
	assert.Equal(t, "INSERT INTO a VALUES ('it''s')", got[1])
	assert.Equal(t, `SELECT "semi;colon" FROM a`, got[2])
}

func TestNew_AppliesEmbeddedMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := New(path, Migrations(), zap.NewNop())
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"001_init.sql"}, db.Applied)
	require.NoError(t, db.Close())

	// Reopening must not re-run 001_init.sql.
	db, err = New(path, Migrations(), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.Empty(t, db.Applied)
}

func TestNew_FailedMigrationIsNotRecorded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	migrations := fstest.MapFS{
		"001_ok.sql":  {Data: []byte(`CREATE TABLE ok (id TEXT)`)},
		"002_bad.sql": {Data: []byte(`CREATE TABLE half (id TEXT); INSERT INTO missing VALUES (1)`)},
	}

	_, err := New(path, migrations, zap.NewNop())
	require.Error(t, err)

	delete(migrations, "002_bad.sql")
	db, err := New(path, migrations, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'half'`).Scan(&n))
	assert.Zero(t, n, "statements of a failed file are rolled back")
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNew_SkipsRecoverableStatements(t *testing.T) {
	migrations := fstest.MapFS{
		"001_a.sql": {Data: []byte(`CREATE TABLE t (id TEXT); ALTER TABLE t ADD COLUMN extra TEXT;`)},
		"002_b.sql": {Data: []byte(`ALTER TABLE t ADD COLUMN extra TEXT; CREATE TABLE u (id TEXT);`)},
	}

	db, err := New(filepath.Join(t.TempDir(), "r.db"), migrations, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Conn.Exec(`INSERT INTO u (id) VALUES ('x')`)
	assert.NoError(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	migrations := fstest.MapFS{
		"001.sql": {Data: []byte(`CREATE TABLE t (id TEXT PRIMARY KEY)`)},
	}
	db, err := New(filepath.Join(t.TempDir(), "tx.db"), migrations, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTx(context.Background(), db.Conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(context.Background(), `INSERT INTO t (id) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var id string
	err = db.Conn.QueryRow(`SELECT id FROM t`).Scan(&id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = WithTx(context.Background(), db.Conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), `INSERT INTO t (id) VALUES ('b')`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, db.Conn.QueryRow(`SELECT id FROM t`).Scan(&id))
	assert.Equal(t, "b", id)
}
