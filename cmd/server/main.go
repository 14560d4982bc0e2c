// Package main runs the country data service: an HTTP API backed by
// Postgres (or an in-memory store) that mirrors external country and
// exchange-rate data.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/worldpulse/country_service/internal/app"
	"github.com/worldpulse/country_service/internal/app/httpapi"
	"github.com/worldpulse/country_service/internal/app/metrics"
	"github.com/worldpulse/country_service/internal/app/storage"
	"github.com/worldpulse/country_service/internal/app/storage/postgres"
	"github.com/worldpulse/country_service/internal/config"
	"github.com/worldpulse/country_service/internal/middleware"
	"github.com/worldpulse/country_service/internal/platform/migrations"
	"github.com/worldpulse/country_service/pkg/logger"
)

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}).WithField("component", "server")

	var countryStore storage.CountryStore
	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = sql.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("ping database")
		}

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = migrations.Apply(migrateCtx, db)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("apply migrations")
		}

		countryStore = postgres.New(db)
		log.Info("using postgres store")
	} else {
		log.Warn("no database DSN configured, using in-memory store")
	}

	refreshInterval, err := cfg.RefreshInterval()
	if err != nil {
		log.WithError(err).Fatal("invalid refresh interval")
	}

	application, err := app.New(app.Stores{Countries: countryStore}, app.Options{
		CountriesURL:    cfg.Upstream.CountriesURL,
		RatesURL:        cfg.Upstream.RatesURL,
		CacheDir:        cfg.Cache.Dir,
		RefreshInterval: refreshInterval,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application")
	}

	handler := metrics.InstrumentHandler(httpapi.NewHandler(application))
	handler = middleware.NewCORSMiddleware(cfg.HTTP.CORSAllowedOrigins).Handler(handler)
	if cfg.HTTP.RateLimitPerSecond > 0 {
		burst := cfg.HTTP.RateLimitBurst
		if burst <= 0 {
			burst = cfg.HTTP.RateLimitPerSecond
		}
		handler = middleware.NewRateLimiter(cfg.HTTP.RateLimitPerSecond, burst, log).Handler(handler)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("application stop")
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("close database")
		}
	}

	log.Info("stopped")
}
