package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/countryrates/internal/models"
)

// ErrCountryNotFound is returned when no row matches a name case-insensitively.
var ErrCountryNotFound = errors.New("country not found")

// Sort orders accepted by ListCountries.
const (
	SortGDPDesc  = "gdp_desc"
	SortGDPAsc   = "gdp_asc"
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
)

// ListFilter narrows and orders ListCountries. Empty fields are ignored, and
// an unrecognised Sort leaves the result unordered.
type ListFilter struct {
	Region   string
	Currency string
	Sort     string
}

// Status summarises the stored countries.
type Status struct {
	TotalCountries  int        `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

func whereName(q *bun.SelectQuery, name string) *bun.SelectQuery {
	return q.Where("?TableAlias.name_lower = ?", models.NameKey(name))
}

// FindCountryByName looks a country up by name, ignoring case.
func FindCountryByName(ctx context.Context, db bun.IDB, name string) (*models.Country, error) {
	country := new(models.Country)
	err := whereName(db.NewSelect().Model(country), name).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCountryNotFound
	}
	if err != nil {
		return nil, err
	}
	return country, nil
}

// InsertCountry inserts a new row and fills in its ID.
func InsertCountry(ctx context.Context, db bun.IDB, country *models.Country) error {
	_, err := db.NewInsert().Model(country).Exec(ctx)
	return err
}

// UpdateCountry rewrites every column of an existing row by primary key.
func UpdateCountry(ctx context.Context, db bun.IDB, country *models.Country) error {
	res, err := db.NewUpdate().Model(country).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCountryNotFound
	}
	return nil
}

// ListCountries returns countries matching the filter.
func ListCountries(ctx context.Context, db bun.IDB, filter ListFilter) ([]*models.Country, error) {
	countries := make([]*models.Country, 0)
	q := db.NewSelect().Model(&countries)

	if filter.Region != "" {
		q = q.Where("?TableAlias.region = ?", filter.Region)
	}
	if filter.Currency != "" {
		q = q.Where("?TableAlias.currency_code = ?", filter.Currency)
	}

	switch filter.Sort {
	case SortGDPDesc:
		q = q.OrderExpr("?TableAlias.estimated_gdp DESC")
	case SortGDPAsc:
		q = q.OrderExpr("?TableAlias.estimated_gdp ASC")
	case SortNameAsc:
		q = q.OrderExpr("?TableAlias.name ASC")
	case SortNameDesc:
		q = q.OrderExpr("?TableAlias.name DESC")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return countries, nil
}

// GetCountryByName is FindCountryByName for the read path.
func GetCountryByName(ctx context.Context, db bun.IDB, name string) (*models.Country, error) {
	return FindCountryByName(ctx, db, name)
}

// DeleteCountryByName removes every row whose name matches ignoring case.
func DeleteCountryByName(ctx context.Context, db bun.IDB, name string) error {
	res, err := db.NewDelete().
		Model((*models.Country)(nil)).
		Where("name_lower = ?", models.NameKey(name)).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCountryNotFound
	}
	return nil
}

// CountCountries returns the number of stored countries.
func CountCountries(ctx context.Context, db bun.IDB) (int, error) {
	return db.NewSelect().Model((*models.Country)(nil)).Count(ctx)
}

// TopCountriesByGDP returns up to limit countries with an estimate, highest
// first. Ties keep insertion order.
func TopCountriesByGDP(ctx context.Context, db bun.IDB, limit int) ([]*models.Country, error) {
	countries := make([]*models.Country, 0, limit)
	err := db.NewSelect().
		Model(&countries).
		Where("?TableAlias.estimated_gdp IS NOT NULL").
		OrderExpr("?TableAlias.estimated_gdp DESC").
		OrderExpr("?TableAlias.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return countries, nil
}

// LatestRefresh returns the newest last_refreshed_at, or nil when empty.
func LatestRefresh(ctx context.Context, db bun.IDB) (*time.Time, error) {
	latest := new(models.Country)
	err := db.NewSelect().
		Model(latest).
		Column("last_refreshed_at").
		OrderExpr("?TableAlias.last_refreshed_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts := latest.LastRefreshedAt.UTC()
	return &ts, nil
}

// GetStatus returns the total count and the newest refresh timestamp.
func GetStatus(ctx context.Context, db bun.IDB) (*Status, error) {
	total, err := CountCountries(ctx, db)
	if err != nil {
		return nil, err
	}
	latest, err := LatestRefresh(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Status{TotalCountries: total, LastRefreshedAt: latest}, nil
}
