package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pantrywatch/expiry-notifier/internal/api"
	"github.com/pantrywatch/expiry-notifier/internal/channel"
	"github.com/pantrywatch/expiry-notifier/internal/config"
	"github.com/pantrywatch/expiry-notifier/internal/db"
	"github.com/pantrywatch/expiry-notifier/internal/inventory"
	"github.com/pantrywatch/expiry-notifier/internal/job"
	"github.com/pantrywatch/expiry-notifier/internal/metrics"
	"github.com/pantrywatch/expiry-notifier/internal/ratelimiter"
	"github.com/pantrywatch/expiry-notifier/internal/repository"
	"github.com/pantrywatch/expiry-notifier/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repo := repository.NewPgQueueRepository(pool)
	inv := inventory.NewPgStore(pool)
	sender := channel.NewTelegramSender(cfg.TelegramAPIURL, cfg.TelegramToken, cfg.SendTimeout)
	limiter := ratelimiter.New(cfg.SendsPerMinute)

	onSent, onFailed := m.DrainerHooks()
	populator := job.NewPopulator(inv, repo, cfg, logger.Named("populator"), m.PopulatorHook())
	drainer := job.NewDrainer(repo, sender, limiter, cfg, logger.Named("drainer"), job.DrainerHooks{
		OnSent:   onSent,
		OnFailed: onFailed,
	})

	// ---- optional in-process schedulers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	if cfg.EnableScheduler {
		populateS := worker.NewScheduler("populate", cfg.PopulateInterval,
			func(ctx context.Context) { populator.Run(ctx) }, logger)
		drainS := worker.NewScheduler("drain", cfg.DrainInterval,
			func(ctx context.Context) { drainer.Run(ctx) }, logger)

		wg.Add(2)
		go func() { defer wg.Done(); populateS.Run(workerCtx) }()
		go func() { defer wg.Done(); drainS.Run(workerCtx) }()
	}

	// ---- HTTP server ----
	router := api.NewRouter(populator, drainer, repo, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal the schedulers to stop and wait for in-flight runs.
	cancelWorkers()
	wg.Wait()

	logger.Info("server stopped cleanly")
}
