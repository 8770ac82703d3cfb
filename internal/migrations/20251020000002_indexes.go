package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	// name_lower holds the Go-side lowercase name, so the unique index covers
	// non-ASCII letters that SQLite's lower() leaves alone.
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_countries_name_lower ON countries (name_lower)",
			"CREATE INDEX IF NOT EXISTS idx_countries_region ON countries (region)",
			"CREATE INDEX IF NOT EXISTS idx_countries_currency_code ON countries (currency_code)",
			"CREATE INDEX IF NOT EXISTS idx_countries_estimated_gdp ON countries (estimated_gdp)",
			"CREATE INDEX IF NOT EXISTS idx_countries_last_refreshed_at ON countries (last_refreshed_at)",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"DROP INDEX IF EXISTS idx_countries_name_lower",
			"DROP INDEX IF EXISTS idx_countries_region",
			"DROP INDEX IF EXISTS idx_countries_currency_code",
			"DROP INDEX IF EXISTS idx_countries_estimated_gdp",
			"DROP INDEX IF EXISTS idx_countries_last_refreshed_at",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	})
}
