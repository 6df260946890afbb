// Package main is the entry point for the fleet scheduling API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pkordes/fleet-scheduler/internal/cache"
	"github.com/pkordes/fleet-scheduler/internal/config"
	"github.com/pkordes/fleet-scheduler/internal/events"
	"github.com/pkordes/fleet-scheduler/internal/handler"
	"github.com/pkordes/fleet-scheduler/internal/middleware"
	"github.com/pkordes/fleet-scheduler/internal/repo"
	"github.com/pkordes/fleet-scheduler/internal/service"
	"github.com/pkordes/fleet-scheduler/internal/telemetry"
	"github.com/pkordes/fleet-scheduler/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	var logOut io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		defer rotating.Close()
		logOut = rotating
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Tracing ----------------------------------------------------------
	// Spans go to stderr so they never interleave with JSON logs on stdout.
	tracerProvider, shutdownTracing, err := telemetry.Setup(ctx, cfg.TraceExporter, os.Stderr)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("tracing shutdown error", "error", err)
		}
	}()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := migrate(ctx, pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Repos, cache and events -----------------------------------------
	var profiles repo.ProfileRepo = repo.NewProfileRepo(pool)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			// The cache is optional; run against Postgres alone.
			slog.Warn("profile cache disabled", "error", err)
		} else {
			defer rdb.Close()
			profiles = cache.NewProfileCache(rdb, profiles, cfg.ProfileCacheTTL, logger)
			slog.Info("profile cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProfileCacheTTL)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		defer kp.Close()
		publisher = kp
		slog.Info("event publishing enabled", "brokers", cfg.KafkaBrokers)
	}

	deps := service.Deps{
		Profiles:  profiles,
		Drivers:   repo.NewDriverRepo(pool),
		Schedules: repo.NewScheduleRepo(pool),
		Trips:     repo.NewTripRepo(pool),
		Tx:        repo.NewTransactor(pool),
		Audit:     repo.NewAuditRepo(pool),
		Events:    publisher,
		Logger:    logger,
		Location:  cfg.Location,
	}
	trips := service.NewTripService(deps, cfg.ExclusiveDriverDay)
	schedules := service.NewScheduleService(deps)

	auth, err := middleware.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		slog.Error("failed to configure authentication", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → CORS → body limit
	// → Authenticator → Logger → Recoverer. The logger sits inside the
	// authenticator so it can record the caller uid.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(auth.Handler)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Mount("/", handler.NewServer(trips, schedules, pool, logger).Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.NewHandler(r, tracerProvider),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations through a database/sql view of pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}
