package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"bin-status-backend/config"
	"bin-status-backend/internal/api"
	"bin-status-backend/internal/bins"
	"bin-status-backend/internal/clock"
	"bin-status-backend/internal/db"
	"bin-status-backend/internal/liveness"
	"bin-status-backend/internal/model"
	"bin-status-backend/internal/notification"
	"bin-status-backend/internal/store"
)

// offlineHandler is the sweep's patch target: it patches the persisted
// record and queues a push alert for the location's subscribers.
type offlineHandler struct {
	bins *bins.Service
	pool *notification.WorkerPool
}

func (h *offlineHandler) MarkOffline(ctx context.Context, key model.BinKey) error {
	h.pool.Dispatch(key)
	return h.bins.MarkOffline(ctx, key)
}

func main() {
	logger := log.New(os.Stdout, "bin-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; offline alerts will not be delivered")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	clk, err := clock.New(cfg.Clock.Timezone)
	if err != nil {
		logger.Fatalf("failed to initialize clock: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	pool.Start(ctx)

	// The tracker and the bin service are mutually wired: updates feed
	// sightings into the tracker, the tracker's offline sweep patches
	// records through the service.
	tracker := liveness.NewTracker(cfg.Liveness, clk, nil)
	binSvc := bins.NewService(appStore, clk, tracker)
	tracker.SetPatcher(&offlineHandler{bins: binSvc, pool: pool})

	go tracker.Run(ctx)

	router := api.NewRouter(&cfg.Server, binSvc, appStore, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
