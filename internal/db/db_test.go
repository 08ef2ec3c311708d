package db

import (
	"path/filepath"
	"testing"

	"github.com/pokerjest/stamper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:", dsn(":memory:"))
	assert.Equal(t, "a.db?mode=ro", dsn("a.db?mode=ro"))
	assert.Contains(t, dsn("data/media.db"), "journal_mode(WAL)")
}

func TestOpenMedia_MigratesRelations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "media.db")
	gdb, err := OpenMedia(path)
	require.NoError(t, err)
	defer Close(gdb)

	for _, m := range model.MediaModels() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T", m)
	}
	assert.False(t, gdb.Migrator().HasTable(&model.History{}))
}

func TestOpenSite_MigratesRelations(t *testing.T) {
	gdb, err := OpenSite(filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	defer Close(gdb)

	assert.True(t, gdb.Migrator().HasTable(&model.History{}))
	assert.True(t, gdb.Migrator().HasTable(&model.Favorite{}))
}
