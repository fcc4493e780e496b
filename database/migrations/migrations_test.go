package migrations_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/models"
	_ "github.com/artisansally/ally/database/migrations"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/migration"
)

func TestRunAndRollback(t *testing.T) {
	db, err := database.Open("sqlite", "file:migrations_test?mode=memory&cache=shared")
	require.NoError(t, err)

	var out bytes.Buffer
	r := migration.New(db, &out)
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "20250101000000_create_core_tables")

	for _, m := range []interface{}{&models.User{}, &models.Material{}, &models.Product{}, &models.RecipeItem{}, &models.EbayToken{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}

	status, err := r.Status()
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Ran)
	assert.Equal(t, 1, status[1].Batch)

	out.Reset()
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "Nothing to migrate.")

	require.NoError(t, r.Rollback())
	assert.False(t, db.Migrator().HasTable(&models.EbayToken{}))
	assert.False(t, db.Migrator().HasTable(&models.User{}))
}
