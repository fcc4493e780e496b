package seeders_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/database/seeders"
	"github.com/artisansally/ally/pkg/testkit"
)

func TestRunAll_SeedsDemoOnce(t *testing.T) {
	db := testkit.NewDB(t)

	var out bytes.Buffer
	require.NoError(t, seeders.RunAll(db, &out))
	require.NoError(t, seeders.RunAll(db, &out))
	assert.Contains(t, out.String(), "demo workshop")

	var users, materials, lines int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Material{}).Count(&materials)
	db.Model(&models.RecipeItem{}).Count(&lines)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(3), materials)
	assert.Equal(t, int64(3), lines)
}
