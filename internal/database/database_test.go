package database_test

import (
	"path/filepath"
	"testing"

	"pvp-arena/internal/config"
	"pvp-arena/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesPragmasAndMigrations(t *testing.T) {
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "arena.db")}

	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var mmapSize int64
	require.NoError(t, db.QueryRow("PRAGMA mmap_size").Scan(&mmapSize))
	assert.Equal(t, int64(268435456), mmapSize)

	// Migrations created the full schema.
	for _, table := range []string{"seasons", "player_ratings", "matches"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n), table)
		assert.Zero(t, n, table)
	}
}
