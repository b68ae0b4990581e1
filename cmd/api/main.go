package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ispnet/internal/api"
	"ispnet/internal/buildinfo"
	"ispnet/internal/config"
	"ispnet/internal/logger"
	"ispnet/internal/metrics"
	"ispnet/internal/observability"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	logger.Setup(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{Enabled: cfg.TraceStdout, ServiceName: "ispnet-api"}, log)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	metrics.RegisterDefault()
	srvDeps, err := api.NewServer(cfg, log)
	if err != nil {
		log.Fatal("failed to init server", zap.Error(err))
	}
	defer func() { _ = srvDeps.Close() }()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srvDeps.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("API listening",
		zap.String("addr", cfg.Addr()),
		zap.String("version", buildinfo.Version),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.Bool("redis", cfg.RedisURL != ""),
	)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn("graceful shutdown failed", zap.Error(err))
		}
	}
}
