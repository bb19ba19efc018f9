package db

import (
	"context"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndMigrate(t *testing.T) {
	database, err := Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { Close(database) })

	require.NoError(t, RunMigrations(database.DB, "sqlite"))
	require.NoError(t, RunMigrations(database.DB, "sqlite"), "re-running is a no-op")

	version, err := Version(context.Background(), database.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var count int
	err = database.Get(&count, `SELECT COUNT(*) FROM documents`)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = database.Get(&count, `SELECT COUNT(*) FROM users`)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMigrateDown(t *testing.T) {
	database, err := Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { Close(database) })

	require.NoError(t, RunMigrations(database.DB, "sqlite"))
	require.NoError(t, MigrateDown(database.DB, "sqlite"))

	_, err = database.Exec(`SELECT 1 FROM documents`)
	assert.Error(t, err)
	_, err = database.Exec(`SELECT 1 FROM users`)
	assert.NoError(t, err)
}

func TestDialect(t *testing.T) {
	dialect, err := getDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, goose.DialectSQLite3, dialect)

	dialect, err = getDialect("pgx")
	require.NoError(t, err)
	assert.Equal(t, goose.DialectPostgres, dialect)

	_, err = getDialect("custom")
	assert.Error(t, err)
}

func TestInitUnknownDriver(t *testing.T) {
	_, err := Init("nope", "whatever")
	assert.Error(t, err)
}
