package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "camelot.db")
	pool, err := Open(config.DatabaseConfig{Driver: "sqlite3", Path: path})
	require.NoError(t, err)
	defer func() { _ = pool.Close() }()

	_, err = pool.Writer().Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = pool.Writer().Exec(`INSERT INTO t (name) VALUES (?)`, "claude")
	require.NoError(t, err)

	var name string
	require.NoError(t, pool.Reader().Get(&name, `SELECT name FROM t WHERE id = 1`))
	assert.Equal(t, "claude", name)

	_, err = pool.Reader().Exec(`INSERT INTO t (name) VALUES (?)`, "copilot")
	assert.Error(t, err, "reader must be read-only")
	_, err = pool.Reader().Exec(`CREATE TABLE other (id INTEGER)`)
	assert.Error(t, err, "reader must reject schema changes")

	var count int
	require.NoError(t, pool.Writer().Get(&count, `SELECT COUNT(*) FROM t`))
	assert.Equal(t, 1, count)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
