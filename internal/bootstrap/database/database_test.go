package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/query-cache/internal/bootstrap/config"
)

func TestOpenCreatesDirectory(t *testing.T) {
	r := require.New(t)
	dir := filepath.Join(t.TempDir(), "nested", "state")

	db, err := Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "properties.sqlite"),
	})
	r.NoError(err)

	sqlDB, err := db.DB()
	r.NoError(err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	r.NoError(sqlDB.Ping())

	_, err = os.Stat(dir)
	r.NoError(err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres", DSN: "x"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestEnsureSQLiteDirectorySkipsMemory(t *testing.T) {
	for _, dsn := range []string{"", ":memory:", "file::memory:?cache=shared"} {
		require.NoError(t, ensureSQLiteDirectory(context.Background(), dsn), dsn)
	}
}
