// Package refresh implements the refresh pipeline: fetch both sources, merge
// them into country rows inside one transaction, then rank and summarise.
package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mkoziy/countryrates/internal/metrics"
	"github.com/mkoziy/countryrates/internal/models"
	"github.com/mkoziy/countryrates/internal/repositories"
	"github.com/mkoziy/countryrates/internal/sources/exchangerate"
	"github.com/mkoziy/countryrates/internal/sources/restcountries"
	"github.com/mkoziy/countryrates/internal/summary"
)

// TopN is how many countries the summary ranks.
const TopN = 5

// CountrySource provides the raw country list.
type CountrySource interface {
	FetchCountries(ctx context.Context) ([]restcountries.Country, error)
}

// RateSource provides the exchange-rate table.
type RateSource interface {
	FetchRates(ctx context.Context) (*exchangerate.Response, error)
}

// Result describes a committed refresh.
type Result struct {
	RunID          string
	TotalCountries int
	RefreshedAt    time.Time
	Inserted       int
	Updated        int
}

// Service runs refreshes. Concurrent calls to Refresh share one run.
type Service struct {
	db         *bun.DB
	countries  CountrySource
	rates      RateSource
	summary    summary.Generator
	logger     *zap.Logger
	metrics    *metrics.Metrics
	multiplier func() float64
	now        func() time.Time
	group      singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithMultiplier replaces the random GDP multiplier.
func WithMultiplier(fn func() float64) Option {
	return func(s *Service) { s.multiplier = fn }
}

// WithClock replaces the wall clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records refresh metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires a refresh service.
func NewService(db *bun.DB, countries CountrySource, rates RateSource, gen summary.Generator, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:         db,
		countries:  countries,
		rates:      rates,
		summary:    gen,
		logger:     logger,
		multiplier: RandomMultiplier,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

// Refresh runs the pipeline, or joins the run already in flight. The run is
// detached from ctx cancellation: fetches are bounded by the client timeouts
// and a started transaction runs to commit or rollback.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do("refresh", func() (interface{}, error) {
		return s.run(runCtx)
	})
	if shared {
		s.logger.Debug("joined in-flight refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	start := s.now()
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	logger.Info("refresh started")

	raw, err := s.fetchCountries(ctx)
	if err != nil {
		logger.Error("failed to fetch countries", zap.Error(err))
		s.metrics.ObserveRefresh(metrics.OutcomeUnavailable, start)
		return nil, err
	}

	rates, err := s.fetchRates(ctx)
	if err != nil {
		logger.Error("failed to fetch exchange rates", zap.Error(err))
		s.metrics.ObserveRefresh(metrics.OutcomeUnavailable, start)
		return nil, err
	}
	if err := validateRates(rates); err != nil {
		logger.Error("exchange data invalid", zap.Error(err))
		s.metrics.ObserveRefresh(metrics.OutcomeInvalid, start)
		return nil, err
	}

	refreshedAt, err := s.runTimestamp(ctx, start)
	if err != nil {
		logger.Error("failed to read last refresh", zap.Error(err))
		s.metrics.ObserveRefresh(metrics.OutcomePersistence, start)
		return nil, &PersistenceError{Err: err}
	}

	records := make([]*models.Country, 0, len(raw))
	run := &models.RefreshRun{
		RunID:            runID,
		StartedAt:        start.UTC(),
		RefreshedAt:      refreshedAt,
		CountriesFetched: len(raw),
	}
	for _, c := range raw {
		record := Normalize(c, rates.Rates, s.multiplier, refreshedAt)
		if record.HasEstimate() {
			run.RatesMatched++
		}
		records = append(records, record)
	}

	if err := s.upsertAll(ctx, logger, records, run); err != nil {
		logger.Error("transaction failed", zap.Error(err))
		s.metrics.ObserveRefresh(metrics.OutcomePersistence, start)
		return nil, err
	}

	total, top, err := s.rank(ctx)
	if err != nil {
		logger.Error("failed to rank countries", zap.Error(err))
		s.metrics.ObserveRefresh(metrics.OutcomeError, start)
		return nil, fmt.Errorf("rank: %w", err)
	}
	s.metrics.ObserveCommit(run.Inserted, run.Updated, total, refreshedAt)

	snap := summary.Snapshot{Total: total, Top: top, RefreshedAt: refreshedAt}
	if err := s.summary.Generate(ctx, snap); err != nil {
		s.metrics.SummaryFailures.Inc()
		logger.Error("summary generation failed", zap.Error(err))
	}

	s.metrics.ObserveRefresh(metrics.OutcomeSuccess, start)
	logger.Info("refresh committed",
		zap.Int("fetched", run.CountriesFetched),
		zap.Int("inserted", run.Inserted),
		zap.Int("updated", run.Updated),
		zap.Int("rates_matched", run.RatesMatched),
		zap.Int("total", total),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		RunID:          runID,
		TotalCountries: total,
		RefreshedAt:    refreshedAt,
		Inserted:       run.Inserted,
		Updated:        run.Updated,
	}, nil
}

func (s *Service) fetchCountries(ctx context.Context) ([]restcountries.Country, error) {
	start := time.Now()
	raw, err := s.countries.FetchCountries(ctx)
	s.metrics.ObserveFetch(restcountries.SourceName, start, err)
	return raw, err
}

func (s *Service) fetchRates(ctx context.Context) (*exchangerate.Response, error) {
	start := time.Now()
	resp, err := s.rates.FetchRates(ctx)
	s.metrics.ObserveFetch(exchangerate.SourceName, start, err)
	return resp, err
}

func validateRates(resp *exchangerate.Response) error {
	switch {
	case resp == nil:
		return fmt.Errorf("%w: empty response", ErrInvalidExchangeData)
	case resp.Failed():
		return fmt.Errorf("%w: result %q %s", ErrInvalidExchangeData, resp.Result, resp.ErrorType)
	case resp.Rates == nil:
		return fmt.Errorf("%w: no rate table", ErrInvalidExchangeData)
	}
	return nil
}

// runTimestamp is the single timestamp stamped on every row of this run. It
// never goes behind what is already stored, so a clock step back cannot make
// last_refreshed_at decrease.
func (s *Service) runTimestamp(ctx context.Context, now time.Time) (time.Time, error) {
	ts := now.UTC().Truncate(time.Microsecond)
	latest, err := repositories.LatestRefresh(ctx, s.db)
	if err != nil {
		return time.Time{}, err
	}
	if latest != nil && latest.After(ts) {
		ts = *latest
	}
	return ts, nil
}

// upsertAll writes the batch in one transaction. Any failure rolls back all
// of it.
func (s *Service) upsertAll(ctx context.Context, logger *zap.Logger, records []*models.Country, run *models.RefreshRun) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	for _, record := range records {
		inserted, upsertErr := upsertCountry(ctx, tx, record)
		if upsertErr != nil {
			return &PersistenceError{Country: record.Name, Err: upsertErr}
		}
		if inserted {
			run.Inserted++
		} else {
			run.Updated++
		}
	}

	if runErr := repositories.InsertRefreshRun(ctx, tx, run); runErr != nil {
		return &PersistenceError{Err: fmt.Errorf("record run: %w", runErr)}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return &PersistenceError{Err: fmt.Errorf("commit: %w", commitErr)}
	}
	return nil
}

// upsertCountry updates the row whose name matches ignoring case, or inserts
// a new one. It reports whether a row was inserted.
func upsertCountry(ctx context.Context, tx bun.Tx, record *models.Country) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}

	existing, err := repositories.FindCountryByName(ctx, tx, record.Name)
	if errors.Is(err, repositories.ErrCountryNotFound) {
		return true, repositories.InsertCountry(ctx, tx, record)
	}
	if err != nil {
		return false, fmt.Errorf("find existing: %w", err)
	}

	existing.ApplyRefresh(record)
	record.ID = existing.ID
	return false, repositories.UpdateCountry(ctx, tx, existing)
}

func (s *Service) rank(ctx context.Context) (int, []*models.Country, error) {
	total, err := repositories.CountCountries(ctx, s.db)
	if err != nil {
		return 0, nil, fmt.Errorf("count: %w", err)
	}
	top, err := repositories.TopCountriesByGDP(ctx, s.db, TopN)
	if err != nil {
		return 0, nil, fmt.Errorf("top by gdp: %w", err)
	}
	return total, top, nil
}
