package database_test

import (
	"testing"

	"catalog/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenGORM_SQLite(t *testing.T) {
	db, err := database.OpenGORM("sqlite", "file:open_gorm?mode=memory&cache=shared", false)
	require.NoError(t, err)
	assert.NoError(t, db.Exec("SELECT 1").Error)
	assert.NoError(t, database.CloseGORM(db))
}

func TestOpenGORM_UnknownDriver(t *testing.T) {
	_, err := database.OpenGORM("oracle", "", false)
	assert.ErrorContains(t, err, "oracle")
}
