package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RefreshRun records a committed refresh and what it changed.
type RefreshRun struct {
	bun.BaseModel `bun:"table:refresh_runs,alias:rr"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	RunID            string    `bun:"run_id,unique,notnull" json:"run_id"`
	StartedAt        time.Time `bun:"started_at,notnull" json:"started_at"`
	RefreshedAt      time.Time `bun:"refreshed_at,notnull" json:"refreshed_at"`
	CountriesFetched int       `bun:"countries_fetched,notnull,default:0" json:"countries_fetched"`
	Inserted         int       `bun:"inserted,notnull,default:0" json:"inserted"`
	Updated          int       `bun:"updated,notnull,default:0" json:"updated"`
	RatesMatched     int       `bun:"rates_matched,notnull,default:0" json:"rates_matched"`
}

// Unmatched returns how many fetched countries had no usable exchange rate.
func (r *RefreshRun) Unmatched() int {
	return r.CountriesFetched - r.RatesMatched
}
