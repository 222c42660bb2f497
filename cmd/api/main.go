package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/jwalitptl/alert-engine/internal/analytics"
	"github.com/jwalitptl/alert-engine/internal/config"
	"github.com/jwalitptl/alert-engine/internal/dispatch"
	"github.com/jwalitptl/alert-engine/internal/handler"
	alertHandler "github.com/jwalitptl/alert-engine/internal/handler/alert"
	insightsHandler "github.com/jwalitptl/alert-engine/internal/handler/insights"
	prometheusHandler "github.com/jwalitptl/alert-engine/internal/handler/prometheus"
	settingsHandler "github.com/jwalitptl/alert-engine/internal/handler/settings"
	"github.com/jwalitptl/alert-engine/internal/middleware"
	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/repository"
	"github.com/jwalitptl/alert-engine/internal/repository/postgres"
	redisstore "github.com/jwalitptl/alert-engine/internal/repository/redis"
	"github.com/jwalitptl/alert-engine/internal/router"
	"github.com/jwalitptl/alert-engine/internal/service/engagement"
	"github.com/jwalitptl/alert-engine/internal/tracker"
	"github.com/jwalitptl/alert-engine/internal/trigger"
	"github.com/jwalitptl/alert-engine/pkg/delivery"
	"github.com/jwalitptl/alert-engine/pkg/logger"
	"github.com/jwalitptl/alert-engine/pkg/metrics"
)

func main() {
	log := logger.New(nil)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	// Key-value store: Redis when configured, in-memory otherwise.
	var store repository.Store
	if cfg.Redis.URL != "" {
		redisStore, err := redisstore.NewStore(redisstore.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff(),
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		log.Warn().Msg("no Redis URL configured, state will not survive restarts")
		store = repository.NewMemoryStore()
	}

	// Optional durable interaction archive.
	var archive repository.InteractionArchive
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(cfg.Database.Config)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		archive = postgres.NewInteractionRepository(db)
	}

	m := metrics.New("alert_engine")

	interactionTracker := tracker.New(tracker.Options{
		MaxRecords: cfg.Tracker.MaxRecords,
		Store:      store,
		Archive:    archive,
		Metrics:    m,
		Logger:     log,
	})
	interactionTracker.Load(ctx)

	var svc *engagement.Service
	queue := dispatch.NewQueue(dispatch.Options{
		Settings:    func() model.QuietHoursSettings { return svc.QuietHours() },
		Recorder:    interactionTracker,
		Notifier:    delivery.NewLogNotifier(log),
		Metrics:     m,
		Logger:      log,
		SettleDelay: cfg.Dispatch.SettleDelay(),
	})

	svc = engagement.NewService(ctx, engagement.Options{
		Store:     store,
		Archive:   archive,
		Queue:     queue,
		Tracker:   interactionTracker,
		Analytics: analytics.NewAggregator(interactionTracker, nil),
		Evaluator: trigger.NewEvaluator(cfg.Thresholds),
		Logger:    log,
	})

	// Surface presentation changes in the process log; the host app's
	// banner subscription attaches the same way.
	svc.Subscribe(func(a *model.Alert) {
		if a == nil {
			log.Debug().Msg("presentation slot cleared")
			return
		}
		log.Info().Str("alert_id", a.ID).Str("title", a.Title).Msg("presenting banner")
	})

	auth := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)

	r := router.NewRouter(
		log,
		prometheusHandler.New(m),
		handler.NewHandler(),
		router.Config{
			RateLimit: rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst: cfg.RateLimit.Burst,
		},
		alertHandler.NewHandler(svc),
		settingsHandler.NewHandler(svc),
		insightsHandler.NewHandler(svc, auth),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
