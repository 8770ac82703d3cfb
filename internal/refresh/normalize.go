package refresh

import (
	"math/rand/v2"
	"time"

	"github.com/mkoziy/countryrates/internal/models"
	"github.com/mkoziy/countryrates/internal/sources/exchangerate"
	"github.com/mkoziy/countryrates/internal/sources/restcountries"
)

const (
	minMultiplier = 1000.0
	maxMultiplier = 2000.0
)

// RandomMultiplier draws the GDP scaling factor uniformly from [1000, 2000).
func RandomMultiplier() float64 {
	return minMultiplier + rand.Float64()*(maxMultiplier-minMultiplier)
}

// Normalize maps a raw country onto the stored shape. The multiplier is only
// drawn when the country's currency has a usable rate.
func Normalize(raw restcountries.Country, rates exchangerate.RateTable, multiplier func() float64, refreshedAt time.Time) *models.Country {
	country := &models.Country{
		Name:            raw.Name,
		Capital:         optional(raw.Capital),
		Region:          optional(raw.Region),
		FlagURL:         optional(raw.Flag),
		CurrencyCode:    optional(raw.FirstCurrencyCode()),
		LastRefreshedAt: refreshedAt,
	}
	if raw.Population != nil {
		country.Population = *raw.Population
	}

	if country.CurrencyCode == nil {
		return country
	}
	rate, ok := rates.Lookup(*country.CurrencyCode)
	if !ok {
		return country
	}

	gdp := float64(country.Population) * multiplier() / rate
	country.ExchangeRate = &rate
	country.EstimatedGDP = &gdp
	return country
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
