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
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"menu-availability-backend/config"
	"menu-availability-backend/internal/api"
	"menu-availability-backend/internal/db"
	"menu-availability-backend/internal/gateway"
	"menu-availability-backend/internal/logger"
	"menu-availability-backend/internal/notification"
	"menu-availability-backend/internal/schedule"
	"menu-availability-backend/internal/session"
	"menu-availability-backend/internal/store"
	"menu-availability-backend/internal/watch"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("configuration loaded", zap.String("path", configPath))
	for _, note := range cfg.Notes {
		zap.L().Warn(note)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.L().Fatal("server stopped with error", zap.Error(err))
	}
	zap.L().Info("server gracefully stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	registry := session.NewRegistry(session.WithDefaultCapacity(cfg.Tables.DefaultCapacity))
	gw := gateway.New(registry, appStore)
	poller := gateway.NewPoller(gw, cfg.Realtime.PollLease)

	g, ctx := errgroup.WithContext(ctx)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		registry.Subscribe(pool)
	} else {
		zap.L().Warn("VAPID keys are not configured; seat notifications are disabled")
	}

	watcher := watch.NewService(cfg.Watch, appStore, gw)
	g.Go(func() error {
		watcher.Run(ctx)
		return nil
	})

	ws := gateway.NewWSHandler(gw, gateway.WSOptions{
		SendBuffer:   cfg.Realtime.SendBuffer,
		WriteTimeout: cfg.Realtime.WriteTimeout,
		PongWait:     cfg.Realtime.PongWait,
	})
	projector := schedule.NewProjector(cfg.Schedule.PreOpenMinutes, cfg.Schedule.PreCloseMinutes)
	handler := api.NewHandler(appStore, gw, poller, projector, webpushOptions)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(cfg.Server, handler, ws),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		zap.L().Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutdown signal received, stopping services")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
