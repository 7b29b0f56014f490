package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Carpool/internal/api"
	"github.com/MikeSquared-Agency/Carpool/internal/broker"
	"github.com/MikeSquared-Agency/Carpool/internal/config"
	"github.com/MikeSquared-Agency/Carpool/internal/hermes"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Pool cache (optional)
	var cache store.PoolCache
	if cfg.Redis.Addr != "" {
		rc := store.NewRedisPoolCache(cfg.Redis.Addr, cfg.PoolTTL())
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("failed to connect to redis, running without pool cache", "error", err)
			_ = rc.Close()
		} else {
			cache = rc
			defer rc.Close()
			logger.Info("connected to redis", "ttl", cfg.PoolTTL())
		}
	}

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	engine, err := matching.NewEngine(matching.WithPassengerRadius(cfg.Matching.PassengerDefaultRadiusKm))
	if err != nil {
		logger.Error("invalid matching config", "error", err)
		os.Exit(1)
	}

	// Broker
	b := broker.New(db, cache, hermesClient, engine, cfg, logger)
	b.Start(ctx)
	defer b.Stop()
	logger.Info("broker started", "digest", cfg.Digest.Enabled, "tick_interval", cfg.TickInterval())

	// Directory feed over NATS
	b.SetupSubscriptions()

	// API server
	router := api.NewRouter(db, b, cfg, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
