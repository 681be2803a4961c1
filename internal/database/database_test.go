package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stocksim/internal/config"
	"stocksim/internal/models"
)

func TestNewDatabase(t *testing.T) {
	t.Run("SqliteInMemory", func(t *testing.T) {
		db, err := NewDatabase(&config.Database{Driver: "sqlite", DSN: "file::memory:"})
		assert.NoError(t, err)

		// Schema is in place for every model.
		for _, model := range []any{
			&models.User{}, &models.Trade{}, &models.Stock{}, &models.Watchlist{},
		} {
			assert.True(t, db.Migrator().HasTable(model))
		}
		assert.True(t, db.Migrator().HasTable("watchlist_stocks"))
	})

	t.Run("DefaultsToSqlite", func(t *testing.T) {
		_, err := NewDatabase(&config.Database{DSN: "file::memory:"})
		assert.NoError(t, err)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := NewDatabase(&config.Database{Driver: "oracle", DSN: "x"})
		assert.Error(t, err)
	})
}
