package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weatherdash/dashboard-service/internal/client"
	"github.com/weatherdash/dashboard-service/internal/config"
	"github.com/weatherdash/dashboard-service/internal/forecast"
	httphandler "github.com/weatherdash/dashboard-service/internal/http"
	"github.com/weatherdash/dashboard-service/internal/locations"
	"github.com/weatherdash/dashboard-service/internal/observability"
	"github.com/weatherdash/dashboard-service/internal/scheduler"
	"github.com/weatherdash/dashboard-service/internal/storage"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	upstream, err := client.NewWithRetry(
		cfg.UpstreamBaseURL,
		cfg.UpstreamTimeout,
		cfg.RetryAttempts,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
		logger,
	)
	if err != nil {
		logger.Fatal("upstream client", zap.Error(err))
	}

	kv, err := storage.NewFileKV(cfg.DataDir)
	if err != nil {
		logger.Fatal("location storage", zap.Error(err))
	}
	store := locations.NewStore(kv, logger)
	saved := store.Load(context.Background())
	observability.LocationsSaved.Set(float64(len(saved)))
	logger.Info("locations loaded", zap.Int("count", len(saved)))

	var entryStore forecast.EntryStore
	var memcacheCloser *forecast.MemcachedStore
	switch cfg.ForecastBackend {
	case "memcached":
		mc, err := forecast.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns, cfg.MemcachedMaxAge)
		if err != nil {
			logger.Fatal("memcached store", zap.Error(err))
		}
		memcacheCloser = mc
		entryStore = mc
		logger.Info("forecast backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		entryStore = forecast.NewInMemoryStore(cfg.MemcachedMaxAge)
		logger.Info("forecast backend: in_memory")
	}
	forecasts := forecast.New(upstream, entryStore, cfg.ForecastTTL, cfg.ForecastFetchTimeout, logger)

	refresh := scheduler.New(forecasts, store, cfg.RefreshInterval, logger)
	if err := refresh.Start(); err != nil {
		logger.Fatal("refresh scheduler", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	var cachePing func() error
	if memcacheCloser != nil {
		cachePing = memcacheCloser.Ping
	}
	handler := httphandler.NewHandler(upstream, forecasts, store, logger, cachePing)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	refresh.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
