package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	storesync "github.com/goliatone/go-storesync"
	"github.com/goliatone/go-storesync/adapters/gologger"
	sqlstore "github.com/goliatone/go-storesync/store/sql"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	ctx := context.Background()
	cfg, err := storesync.LoadConfig(ctx, *configPath, storesync.Config{})
	if err != nil {
		bootstrap := gologger.NewStderrLogger("storesync")
		bootstrap.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := gologger.NewProcessLogger(cfg.Env, *debug)
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("process logger unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer logger.Sync()

	client, err := openDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer client.Close()

	stores, err := sqlstore.NewRepositoryFactoryFromPersistence(client,
		sqlstore.WithBufferWindow(cfg.Downstream.Window()),
	)
	if err != nil {
		logger.Fatal("failed to build stores", zap.Error(err))
	}

	application, err := storesync.NewApp(cfg, storesync.AppDependencies{
		Runs:    stores.RunStore(),
		Logs:    stores.LogStore(),
		Records: stores.RecordStore(),
		Health:  stores,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	srv := application.Server()
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("webhook_path", cfg.HTTP.WebhookPath),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	application.Close()
	logger.Info("server exited")
}
