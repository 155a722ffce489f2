// cmd/historian/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/chaos-uno/internal/cache"
	"github.com/jason-s-yu/chaos-uno/internal/config"
	"github.com/jason-s-yu/chaos-uno/internal/database"
	"github.com/jason-s-yu/chaos-uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.Level())
	if cfg.DatabaseURL == "" {
		logger.Fatal("UNO_DATABASE_URL is required")
	}
	log := logrus.NewEntry(logger).WithField("service", "historian")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()

	h := historian.New(rdb, pool, historian.Options{
		Queue:         cfg.ActionQueue,
		BatchSize:     cfg.HistorianBatchSize,
		FlushInterval: cfg.HistorianFlush,
		IdleTimeout:   cfg.RoomIdleTimeout,
	}, log)

	log.Info("historian started")
	if err := h.Run(ctx); err != nil {
		log.WithError(err).Error("historian stopped")
		return
	}
	log.Info("historian shutdown complete")
}
