package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestCountryValidate(t *testing.T) {
	valid := &Country{
		Name:            "Testland",
		Population:      1000000,
		CurrencyCode:    ptr("TST"),
		ExchangeRate:    ptr(2.0),
		EstimatedGDP:    ptr(750000000.0),
		LastRefreshedAt: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid country, got error: %v", err)
	}

	invalid := &Country{}
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected error for empty country")
	}

	negative := *valid
	negative.Population = -1
	if err := negative.Validate(); err == nil {
		t.Fatalf("expected error for negative population")
	}

	orphanGDP := *valid
	orphanGDP.ExchangeRate = nil
	if err := orphanGDP.Validate(); err == nil {
		t.Fatalf("expected error when gdp is set without a rate")
	}

	noCurrency := *valid
	noCurrency.CurrencyCode = nil
	if err := noCurrency.Validate(); err == nil {
		t.Fatalf("expected error when rate is set without a currency")
	}
}

func TestCountryApplyRefreshKeepsID(t *testing.T) {
	existing := &Country{ID: 42, Name: "france", Population: 1}
	now := time.Now()
	existing.ApplyRefresh(&Country{ID: 7, Name: "France", Population: 67000000, Region: ptr("Europe"), LastRefreshedAt: now})

	if existing.ID != 42 {
		t.Fatalf("expected id to be preserved, got %d", existing.ID)
	}
	if existing.Name != "France" || existing.Population != 67000000 {
		t.Fatalf("unexpected refreshed fields: %+v", existing)
	}
	if existing.Region == nil || *existing.Region != "Europe" {
		t.Fatalf("expected region to be copied")
	}
	if !existing.LastRefreshedAt.Equal(now) {
		t.Fatalf("expected timestamp to be copied")
	}
}

func TestRefreshRunUnmatched(t *testing.T) {
	r := &RefreshRun{CountriesFetched: 250, RatesMatched: 240}
	if got := r.Unmatched(); got != 10 {
		t.Fatalf("expected 10 unmatched, got %d", got)
	}
}
