package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"surfsup/internal/config"
	"surfsup/internal/db"
	"surfsup/internal/httpapi"
	"surfsup/internal/modules/climate"
	"surfsup/internal/modules/climate/repository"
	"surfsup/internal/modules/climate/views"
	"surfsup/internal/observability"
)

// Run serves the climate API until ctx is cancelled. The database must
// already hold the station and measurement tables.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	return run(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"logSQL", cfg.LogSQL,
		"httpAddr", cfg.HTTPAddr,
		"sqlitePath", cfg.Path,
		"dsnOverride", cfg.DSN != "",
		"maxOpenConns", cfg.MaxOpenConns,
		"maxIdleConns", cfg.MaxIdleConns,
		"connMaxLifetime", cfg.ConnMaxLifetime,
		"queryTimeout", cfg.QueryTimeout,
		"referenceDate", cfg.ReferenceDate,
		"windowDays", cfg.WindowDays,
		"activeStation", cfg.ActiveStation,
		"legacyStationCountField", cfg.LegacyStationCountField,
		"corsAllowedOrigins", cfg.CORSAllowedOrigins,
		"rateLimitRPS", cfg.RateLimitRPS,
	)

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	schemaCtx, schemaCancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	err = db.ValidateSchema(schemaCtx, dbConn, repository.Schema...)
	schemaCancel()
	if err != nil {
		return fmt.Errorf("climate database %s: %w", cfg.Path, err)
	}
	slog.Info("database schema verified")

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	metrics := observability.NewMetrics(reg)

	mux := httpapi.NewMux(dbConn, gatherer)
	climateRepository, err := climate.RegisterFeature(mux, dbConn, cfg, metrics)
	if err != nil {
		return err
	}
	httpapi.RegisterReadiness(mux, climateRepository)

	srv := httpapi.NewServer(cfg, mux, metrics)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
