package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/alerts"
	"github.com/ariefcatur/go-merchant-console/internal/config"
	kafkax "github.com/ariefcatur/go-merchant-console/internal/kafka"
	"github.com/ariefcatur/go-merchant-console/internal/logging"
	"github.com/ariefcatur/go-merchant-console/internal/orders"
	"github.com/ariefcatur/go-merchant-console/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger, err := logging.New(cfg.ServiceName+"-notifier", cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &alerts.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-notifier",
		FeedSize:    cfg.AlertFeedSize,
		Log:         logger,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderStatusChanged, cfg.NotifierWorkers, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("notifier consumer started",
			zap.String("group", cfg.NotifierGroup), zap.String("topic", orders.TopicOrderStatusChanged), zap.Int("workers", cfg.NotifierWorkers))
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer...")
	cancel()
	<-done
}
