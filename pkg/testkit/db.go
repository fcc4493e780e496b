package testkit

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	_ "github.com/artisansally/ally/database/migrations"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/migration"
)

// NewDB opens a private in-memory SQLite database, runs every registered
// migration and installs it as database.DB for the duration of the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("testkit: open sqlite: %v", err)
	}
	if err := migration.New(db, io.Discard).Run(); err != nil {
		t.Fatalf("testkit: migrate: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
