package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"whatevereat/internal/bot"
	"whatevereat/internal/config"
	"whatevereat/internal/engine"
	"whatevereat/internal/history"
	"whatevereat/internal/httpapi"
	"whatevereat/internal/line"
	"whatevereat/internal/observability"
	"whatevereat/internal/places"
	"whatevereat/internal/session"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	sessions, err := session.NewStore(ctx, cfg.DatabaseURL, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("session store init failed", zap.Error(err))
	}
	defer sessions.Close()

	hist, err := history.NewStore(ctx, cfg.DatabaseURL, cfg.HistoryWindow)
	if err != nil {
		logger.Fatal("history store init failed", zap.Error(err))
	}
	defer hist.Close()

	resolver, err := places.NewResolver(places.Config{
		Mode:              cfg.ResolverMode,
		APIKey:            cfg.PlacesAPIKey,
		Language:          cfg.PlacesLanguage,
		CacheTTL:          cfg.PlacesCacheTTL,
		RequestsPerSecond: cfg.PlacesRateLimit,
		Burst:             cfg.PlacesLimitBurst,
	}, logger)
	if err != nil {
		logger.Fatal("resolver init failed", zap.Error(err))
	}

	eng := engine.New(sessions, hist, resolver, metrics, engine.Config{
		RadiusMeters:    cfg.SearchRadius,
		ResolverTimeout: cfg.ResolverTimeout,
	}, logger)
	dispatcher := bot.NewDispatcher(eng, metrics, logger)

	var replier httpapi.Replier
	if cfg.LineEnabled() {
		replier = line.NewClient(cfg.LineChannelAccessToken)
		logger.Info("line channel enabled")
	} else {
		logger.Info("line credentials not set, console is the only channel")
	}

	api := httpapi.New(cfg, dispatcher, sessions, replier, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	if cfg.JanitorEnabled {
		if j, ok := sessions.(interface {
			StartJanitor(context.Context, time.Duration)
		}); ok {
			j.StartJanitor(runCtx, time.Minute)
		}
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
