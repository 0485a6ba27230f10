package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/alert"
	"github.com/watchtowerhq/watchtower/internal/api"
	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/database"
	"github.com/watchtowerhq/watchtower/internal/flush"
	"github.com/watchtowerhq/watchtower/internal/jobs"
	"github.com/watchtowerhq/watchtower/internal/logging"
	"github.com/watchtowerhq/watchtower/internal/mailer"
	"github.com/watchtowerhq/watchtower/internal/notify"
	"github.com/watchtowerhq/watchtower/internal/probe"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/scheduler"
	"github.com/watchtowerhq/watchtower/internal/store"
	"github.com/watchtowerhq/watchtower/internal/websocket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database connection", zap.Error(err))
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect the Redis-backed check buffer and email queue
	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	queues, err := queue.NewRedisQueues(ctx, cfg.Redis.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer queues.Close()

	// Stores
	users := store.NewGormUserStore(db)
	websites := store.NewGormWebsiteStore(db)
	checks := store.NewGormCheckStore(db)

	// WebSocket hub
	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins, logger)
	go hub.Run()

	// Probe scheduler: one timer per monitored website
	prober := probe.NewProber(queues, cfg.Monitor.ProbeTimeout, cfg.Monitor.DefaultRegion, logger)
	evaluator := alert.NewEvaluator(checks, queues, cfg.Alert, logger)
	sched := scheduler.New(prober, evaluator, cfg.Alert.EvaluateInterval, logger)
	defer sched.StopAll()

	// Flush worker: buffered checks -> postgres, fanned out over the hub
	flusher := flush.NewWorker(queues, websites, checks, hub,
		cfg.Monitor.FlushInterval, cfg.Monitor.FlushBatchSize, logger)
	go flusher.Run(ctx)

	// Notification worker: email queue -> SMTP
	transport := mailer.NewSMTP(cfg.SMTP)
	notifier := notify.NewWorker(queues, transport, notify.DefaultIdleDelay, logger)
	go notifier.Run(ctx)

	// Cron jobs (check retention)
	cron := jobs.NewScheduler(checks, cfg.Monitor.RetentionDays, logger)
	cron.Start()
	defer cron.Stop()

	// Setup API router
	router := api.NewRouter(cfg, api.Stores{
		Users:    users,
		Websites: websites,
		Checks:   checks,
	}, sched, queues, hub)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
