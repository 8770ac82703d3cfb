package main

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/mkoziy/countryrates/internal/config"
	"github.com/mkoziy/countryrates/internal/database"
	"github.com/mkoziy/countryrates/internal/logging"
	"github.com/mkoziy/countryrates/internal/metrics"
	"github.com/mkoziy/countryrates/internal/migrations"
	"github.com/mkoziy/countryrates/internal/refresh"
	"github.com/mkoziy/countryrates/internal/sources/exchangerate"
	"github.com/mkoziy/countryrates/internal/sources/restcountries"
	"github.com/mkoziy/countryrates/internal/summary"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *bun.DB
	metrics *metrics.Metrics
	images  *summary.FileGenerator
	service *refresh.Service
}

// newApp loads config, opens and migrates the database and wires the
// refresh service.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrations.RunMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	countries := restcountries.NewClient(cfg.Sources.CountriesURL, cfg.Sources.Timeout, cfg.For(restcountries.SourceName))
	rates := exchangerate.NewClient(cfg.Sources.ExchangeURL, cfg.Sources.Timeout, cfg.For(exchangerate.SourceName))
	images := summary.NewFileGenerator(cfg.Summary.Path)
	m := metrics.New()

	service := refresh.NewService(db, countries, rates, images, logger, refresh.WithMetrics(m))

	logger.Debug("application wired",
		zap.String("driver", cfg.Database.Driver),
		zap.String("summary_path", images.Path()))

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		metrics: m,
		images:  images,
		service: service,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
