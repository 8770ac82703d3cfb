package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Country is the merged country/currency record kept by the refresh pipeline.
type Country struct {
	bun.BaseModel `bun:"table:countries,alias:c"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Name            string    `bun:"name,notnull" json:"name"`
	NameLower       string    `bun:"name_lower,notnull" json:"-"`
	Capital         *string   `bun:"capital" json:"capital"`
	Region          *string   `bun:"region" json:"region"`
	Population      int64     `bun:"population,notnull" json:"population"`
	CurrencyCode    *string   `bun:"currency_code" json:"currency_code"`
	ExchangeRate    *float64  `bun:"exchange_rate" json:"exchange_rate"`
	EstimatedGDP    *float64  `bun:"estimated_gdp" json:"estimated_gdp"`
	FlagURL         *string   `bun:"flag_url" json:"flag_url"`
	LastRefreshedAt time.Time `bun:"last_refreshed_at,notnull" json:"last_refreshed_at"`
}

var (
	_ bun.BeforeAppendModelHook = (*Country)(nil)
	_ bun.AfterScanRowHook      = (*Country)(nil)
)

// NameKey is the identity key for a country name: its Unicode lowercase form.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// BeforeAppendModel keeps name_lower in step with name on every write.
func (c *Country) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		c.NameLower = NameKey(c.Name)
	}
	return nil
}

// AfterScanRow normalises the timestamp to UTC whatever the driver returned.
func (c *Country) AfterScanRow(ctx context.Context) error {
	c.LastRefreshedAt = c.LastRefreshedAt.UTC()
	return nil
}

// Validate checks the invariants a row must hold before it is written.
func (c *Country) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Population < 0 {
		return errors.New("population must not be negative")
	}
	if (c.ExchangeRate == nil) != (c.EstimatedGDP == nil) {
		return errors.New("estimated gdp requires an exchange rate")
	}
	if c.ExchangeRate != nil && c.CurrencyCode == nil {
		return errors.New("exchange rate requires a currency code")
	}
	if c.LastRefreshedAt.IsZero() {
		return errors.New("last refreshed timestamp is required")
	}
	return nil
}

// HasEstimate reports whether the country carries a GDP estimate, which it
// does exactly when it has an exchange rate.
func (c *Country) HasEstimate() bool {
	return c.EstimatedGDP != nil
}

// ApplyRefresh copies every refreshable field from src, keeping the row identity.
func (c *Country) ApplyRefresh(src *Country) {
	c.Name = src.Name
	c.NameLower = NameKey(src.Name)
	c.Capital = src.Capital
	c.Region = src.Region
	c.Population = src.Population
	c.CurrencyCode = src.CurrencyCode
	c.ExchangeRate = src.ExchangeRate
	c.EstimatedGDP = src.EstimatedGDP
	c.FlagURL = src.FlagURL
	c.LastRefreshedAt = src.LastRefreshedAt
}
