package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mkoziy/countryrates/internal/models"
)

// InsertRefreshRun records a refresh run. Call it inside the refresh
// transaction so the ledger commits with the countries it describes.
func InsertRefreshRun(ctx context.Context, db bun.IDB, run *models.RefreshRun) error {
	_, err := db.NewInsert().Model(run).Exec(ctx)
	return err
}

// LatestRefreshRun returns the most recent committed run, or nil if none.
func LatestRefreshRun(ctx context.Context, db bun.IDB) (*models.RefreshRun, error) {
	run := new(models.RefreshRun)
	err := db.NewSelect().
		Model(run).
		OrderExpr("?TableAlias.id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}
