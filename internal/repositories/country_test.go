package repositories

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mkoziy/countryrates/internal/models"
	"github.com/mkoziy/countryrates/internal/testutil"
)

var refreshed = time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)

func seedCountries(t *testing.T) []*models.Country {
	return []*models.Country{
		{Name: "Nigeria", Region: testutil.Ptr("Africa"), Population: 206139587, CurrencyCode: testutil.Ptr("NGN"), ExchangeRate: testutil.Ptr(1600.0), EstimatedGDP: testutil.Ptr(190000000.0), LastRefreshedAt: refreshed},
		{Name: "Ghana", Region: testutil.Ptr("Africa"), Population: 31072940, CurrencyCode: testutil.Ptr("GHS"), ExchangeRate: testutil.Ptr(15.0), EstimatedGDP: testutil.Ptr(3100000000.0), LastRefreshedAt: refreshed},
		{Name: "Antarctica", Region: testutil.Ptr("Polar"), LastRefreshedAt: refreshed},
		{Name: "France", Region: testutil.Ptr("Europe"), Population: 67000000, CurrencyCode: testutil.Ptr("EUR"), ExchangeRate: testutil.Ptr(0.9), EstimatedGDP: testutil.Ptr(99000000000.0), LastRefreshedAt: refreshed.Add(-time.Hour)},
	}
}

func names(countries []*models.Country) []string {
	out := make([]string, len(countries))
	for i, c := range countries {
		out[i] = c.Name
	}
	return out
}

func TestFindCountryByNameIgnoresCase(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Seed(t, db, seedCountries(t)...)

	for _, name := range []string{"france", "FRANCE", "France"} {
		c, err := FindCountryByName(context.Background(), db, name)
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if c.Name != "France" {
			t.Fatalf("expected stored name France, got %s", c.Name)
		}
	}

	if _, err := FindCountryByName(context.Background(), db, "Atlantis"); !errors.Is(err, ErrCountryNotFound) {
		t.Fatalf("expected ErrCountryNotFound, got %v", err)
	}
}

func TestListCountriesFilterAndSort(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Seed(t, db, seedCountries(t)...)
	ctx := context.Background()

	africa, err := ListCountries(ctx, db, ListFilter{Region: "Africa", Sort: SortNameAsc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := names(africa); !reflect.DeepEqual(got, []string{"Ghana", "Nigeria"}) {
		t.Fatalf("unexpected africa list: %v", got)
	}

	eur, err := ListCountries(ctx, db, ListFilter{Currency: "EUR"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := names(eur); !reflect.DeepEqual(got, []string{"France"}) {
		t.Fatalf("unexpected EUR list: %v", got)
	}

	byGDP, err := ListCountries(ctx, db, ListFilter{Region: "Africa", Sort: SortGDPDesc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := names(byGDP); !reflect.DeepEqual(got, []string{"Ghana", "Nigeria"}) {
		t.Fatalf("unexpected gdp_desc order: %v", got)
	}

	byNameDesc, err := ListCountries(ctx, db, ListFilter{Sort: SortNameDesc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := names(byNameDesc); !reflect.DeepEqual(got, []string{"Nigeria", "Ghana", "France", "Antarctica"}) {
		t.Fatalf("unexpected name_desc order: %v", got)
	}

	unordered, err := ListCountries(ctx, db, ListFilter{Sort: "population_desc"})
	if err != nil {
		t.Fatalf("list with unknown sort: %v", err)
	}
	if len(unordered) != 4 {
		t.Fatalf("expected all countries for unknown sort, got %d", len(unordered))
	}

	none, err := ListCountries(ctx, db, ListFilter{Region: "Oceania"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", none)
	}
}

func TestDeleteCountryByName(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Seed(t, db, seedCountries(t)...)
	ctx := context.Background()

	before := testutil.Snapshot(t, db)
	for _, name := range []string{"Atlantis", "ATLANTIS"} {
		if err := DeleteCountryByName(ctx, db, name); !errors.Is(err, ErrCountryNotFound) {
			t.Fatalf("expected ErrCountryNotFound for %s, got %v", name, err)
		}
	}
	if after := testutil.Snapshot(t, db); !reflect.DeepEqual(before, after) {
		t.Fatalf("delete miss changed the store")
	}

	if err := DeleteCountryByName(ctx, db, "gHaNa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetCountryByName(ctx, db, "Ghana"); !errors.Is(err, ErrCountryNotFound) {
		t.Fatalf("expected Ghana to be gone, got %v", err)
	}
	total, err := CountCountries(ctx, db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 countries, got %d", total)
	}
}

func TestTopCountriesByGDPSkipsMissingEstimates(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Seed(t, db, seedCountries(t)...)
	testutil.Seed(t, db,
		&models.Country{Name: "Tieland", Population: 1, CurrencyCode: testutil.Ptr("TIE"), ExchangeRate: testutil.Ptr(1.0), EstimatedGDP: testutil.Ptr(3100000000.0), LastRefreshedAt: refreshed},
		&models.Country{Name: "Bigpop", Population: 2000000000, LastRefreshedAt: refreshed},
		&models.Country{Name: "Smallland", Population: 10, CurrencyCode: testutil.Ptr("SML"), ExchangeRate: testutil.Ptr(1.0), EstimatedGDP: testutil.Ptr(10.0), LastRefreshedAt: refreshed},
	)

	top, err := TopCountriesByGDP(context.Background(), db, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []string{"France", "Ghana", "Tieland", "Nigeria", "Smallland"}
	if got := names(top); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, c := range top {
		if !c.HasEstimate() {
			t.Fatalf("top list contains %s without estimate", c.Name)
		}
	}
}

func TestGetStatus(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	empty, err := GetStatus(ctx, db)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if empty.TotalCountries != 0 || empty.LastRefreshedAt != nil {
		t.Fatalf("unexpected empty status: %+v", empty)
	}

	testutil.Seed(t, db, seedCountries(t)...)
	status, err := GetStatus(ctx, db)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.TotalCountries != 4 {
		t.Fatalf("expected 4 countries, got %d", status.TotalCountries)
	}
	if status.LastRefreshedAt == nil || !status.LastRefreshedAt.Equal(refreshed) {
		t.Fatalf("expected latest refresh %v, got %v", refreshed, status.LastRefreshedAt)
	}
}

func TestUpdateCountryKeepsID(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	c := &models.Country{Name: "france", Population: 1, LastRefreshedAt: refreshed}
	if err := InsertCountry(ctx, db, c); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	c.ApplyRefresh(&models.Country{Name: "France", Population: 67000000, LastRefreshedAt: refreshed.Add(time.Hour)})
	if err := UpdateCountry(ctx, db, c); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := FindCountryByName(ctx, db, "FRANCE")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != c.ID || got.Name != "France" || got.Population != 67000000 {
		t.Fatalf("unexpected row after update: %+v", got)
	}

	missing := &models.Country{ID: 9999, Name: "Ghost", LastRefreshedAt: refreshed}
	if err := UpdateCountry(ctx, db, missing); !errors.Is(err, ErrCountryNotFound) {
		t.Fatalf("expected ErrCountryNotFound, got %v", err)
	}
}

func TestRefreshRunLedger(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	none, err := LatestRefreshRun(ctx, db)
	if err != nil || none != nil {
		t.Fatalf("expected no run, got %v, %v", none, err)
	}

	for _, id := range []string{"run-1", "run-2"} {
		run := &models.RefreshRun{RunID: id, StartedAt: refreshed, RefreshedAt: refreshed, CountriesFetched: 2}
		if err := InsertRefreshRun(ctx, db, run); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	latest, err := LatestRefreshRun(ctx, db)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if latest.RunID != "run-2" {
		t.Fatalf("expected run-2, got %s", latest.RunID)
	}
}

func TestNonASCIINamesMatchIgnoringCase(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	testutil.Seed(t, db,
		&models.Country{Name: "Åland Islands", LastRefreshedAt: refreshed},
		&models.Country{Name: "Türkiye", LastRefreshedAt: refreshed},
	)

	for _, name := range []string{"åland islands", "ÅLAND ISLANDS"} {
		c, err := GetCountryByName(ctx, db, name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		if c.Name != "Åland Islands" {
			t.Fatalf("expected Åland Islands, got %s", c.Name)
		}
	}

	if err := InsertCountry(ctx, db, &models.Country{Name: "åland islands", LastRefreshedAt: refreshed}); err == nil {
		t.Fatalf("expected unique name index to reject a lowercase duplicate")
	}

	if err := DeleteCountryByName(ctx, db, "TÜRKIYE"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := len(testutil.Snapshot(t, db)); n != 1 {
		t.Fatalf("expected 1 country left, got %d", n)
	}
}

func TestUpdateCountryRefreshesNameKey(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	c := &models.Country{Name: "Cote d'Ivoire", LastRefreshedAt: refreshed}
	testutil.Seed(t, db, c)

	c.ApplyRefresh(&models.Country{Name: "Côte d'Ivoire", LastRefreshedAt: refreshed})
	if err := UpdateCountry(ctx, db, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := FindCountryByName(ctx, db, "CÔTE D'IVOIRE"); err != nil {
		t.Fatalf("expected renamed country to be found: %v", err)
	}
	if _, err := FindCountryByName(ctx, db, "cote d'ivoire"); !errors.Is(err, ErrCountryNotFound) {
		t.Fatalf("expected old name key to be gone, got %v", err)
	}
}

func TestDeleteWaitsForOpenTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	testutil.Seed(t, db, &models.Country{Name: "a", LastRefreshedAt: refreshed})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := InsertCountry(ctx, tx, &models.Country{Name: "b", LastRefreshedAt: refreshed}); err != nil {
		_ = tx.Rollback()
		t.Fatalf("insert in tx: %v", err)
	}

	var wg sync.WaitGroup
	commitErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(300 * time.Millisecond)
		commitErr <- tx.Commit()
	}()

	if err := DeleteCountryByName(ctx, db, "a"); err != nil {
		t.Fatalf("delete while a transaction was open: %v", err)
	}
	wg.Wait()
	if err := <-commitErr; err != nil {
		t.Fatalf("commit: %v", err)
	}

	stored := testutil.Snapshot(t, db)
	if len(stored) != 1 || stored[0].Name != "b" {
		t.Fatalf("expected only b to remain, got %+v", stored)
	}
}
