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

	"pantry-planner/internal/bootstrap"
	"pantry-planner/internal/config"
	"pantry-planner/internal/logger"
	"pantry-planner/internal/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer zl.Sync()

	ctx := context.Background()

	// 2. Metrics registry shared by the AI recorder and /metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 3. Storage, AI gateway, application core and importer
	svc, err := bootstrap.New(ctx, cfg, zl, bootstrap.Options{Registry: reg})
	if err != nil {
		zl.Fatal("failed to initialize services", zap.Error(err))
	}
	defer svc.Close()

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, svc.App, svc.Importer, svc.Metrics, zl.Named("telegram"))
	if err != nil {
		zl.Fatal("failed to initialize telegram bot", zap.Error(err))
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           telegram.NewRouter(bot, reg, zl.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("telegram bot server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	// Let in-flight updates finish their writes before the database closes.
	bot.Wait()

	zl.Info("server exiting")
}
