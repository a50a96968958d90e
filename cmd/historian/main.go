// cmd/historian/main.go drains the action log from Redis into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/doko/internal/cache"
	"github.com/jason-s-yu/doko/internal/config"
	"github.com/jason-s-yu/doko/internal/database"
	"github.com/jason-s-yu/doko/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.Production() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("historian needs DATABASE_URL or PG_HOST")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.WithError(err).Fatal("failed to prepare history tables")
	}

	sink := historian.SinkFunc(func(ctx context.Context, recs []cache.ActionRecord) error {
		return database.SaveActions(ctx, pool, recs)
	})
	svc := historian.NewService(cache.NewActionLog(rdb, cfg.QueueName), sink,
		cfg.HistorianBatchSize, cfg.HistorianFlushDelay, logger)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Fatal("historian failed")
	}
	logger.Info("Historian shutdown complete.")
}
