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

	"github.com/ariefcatur/go-merchant-console/internal/alerts"
	"github.com/ariefcatur/go-merchant-console/internal/config"
	"github.com/ariefcatur/go-merchant-console/internal/httpx"
	kafkax "github.com/ariefcatur/go-merchant-console/internal/kafka"
	"github.com/ariefcatur/go-merchant-console/internal/logging"
	"github.com/ariefcatur/go-merchant-console/internal/orders"
	"github.com/ariefcatur/go-merchant-console/internal/ordersapi"
	"github.com/ariefcatur/go-merchant-console/internal/postgres"
	"github.com/ariefcatur/go-merchant-console/internal/products"
	"github.com/ariefcatur/go-merchant-console/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, logger)
	prod.Start(ctx)
	events := &kafkax.StatusEvents{
		Producer:   prod,
		Service:    cfg.ServiceName,
		MerchantID: cfg.MerchantID,
		Log:        logger,
	}

	// Orders session
	store := orders.NewStore()
	ctl := orders.NewController(ordersapi.New(cfg, logger.Named("ordersapi")), store, logger.Named("orders"))
	ctl.OnCommit = events.OnCommit

	badges := &redisx.BadgeCache{Redis: rdb, MerchantID: cfg.MerchantID, Log: logger}
	unwatch := badges.Watch(ctx, store)
	defer unwatch()

	if err := ctl.Refresh(ctx); err != nil {
		// the console still starts; the next refresh may succeed
		logger.Warn("initial order load failed", zap.Error(err))
	}
	go refreshLoop(ctx, ctl, cfg.RefreshInterval)

	// Handlers
	repo := &products.Repo{DB: db}
	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Controller: ctl, Loc: cfg.Location(), Log: logger}).Register(router)
	(&httpx.ProductsHandler{Repo: repo}).Register(router)
	(&httpx.AlertsHandler{
		Orders:   store,
		Products: repo,
		Feed:     &alerts.Feed{Redis: rdb, MerchantID: cfg.MerchantID},
		Log:      logger,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.String("merchant", cfg.MerchantID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop refresh loop
	prod.WaitClosed() // drain
}

// refreshLoop keeps the live board current between manual refreshes.
func refreshLoop(ctx context.Context, ctl *orders.Controller, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rctx, cancel := context.WithTimeout(ctx, every)
			_ = ctl.Refresh(rctx) // logged by the controller
			cancel()
		}
	}
}
