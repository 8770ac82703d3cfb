// Package testutil opens migrated databases for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/mkoziy/countryrates/internal/database"
	"github.com/mkoziy/countryrates/internal/migrations"
	"github.com/mkoziy/countryrates/internal/models"
)

// NewDB returns a migrated SQLite database under t.TempDir, closed on cleanup.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "countries.db")
	db, err := database.NewDB(database.Config{Driver: database.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.RunMigrations(context.Background(), db, zap.NewNop()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Seed inserts countries directly, bypassing the refresh pipeline.
func Seed(t *testing.T, db *bun.DB, countries ...*models.Country) {
	t.Helper()
	for _, c := range countries {
		if _, err := db.NewInsert().Model(c).Exec(context.Background()); err != nil {
			t.Fatalf("seed %s: %v", c.Name, err)
		}
	}
}

// Snapshot returns every stored country ordered by id, for before/after comparisons.
func Snapshot(t *testing.T, db *bun.DB) []models.Country {
	t.Helper()
	var countries []models.Country
	if err := db.NewSelect().Model(&countries).OrderExpr("id ASC").Scan(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for i := range countries {
		countries[i].LastRefreshedAt = countries[i].LastRefreshedAt.UTC()
	}
	return countries
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
