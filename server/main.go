package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"seatwave/api/routes"
	"seatwave/internal/bookings"
	"seatwave/internal/inventory"
	"seatwave/internal/shared/config"
	"seatwave/internal/shared/database"
	"seatwave/pkg/logger"
	"seatwave/pkg/ratelimit"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Seat transition audit trail (Kafka, optional)
	var auditor inventory.Auditor = inventory.NoopAuditor{}
	if cfg.Kafka.Enabled {
		auditConfig := inventory.DefaultKafkaAuditConfig()
		auditConfig.Brokers = cfg.Kafka.Brokers
		auditConfig.Topic = cfg.Kafka.AuditTopic
		kafkaAuditor, auditErr := inventory.NewKafkaAuditor(auditConfig)
		if auditErr != nil {
			appLogger.Error("Failed to initialize seat audit producer", slog.Any("error", auditErr))
			appLogger.Info("Continuing without seat transition auditing")
		} else {
			auditor = kafkaAuditor
			defer auditor.Close()
		}
	}

	// Booking lifecycle events (Kafka, optional)
	var publisher bookings.Publisher = bookings.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, pubErr := bookings.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
		if pubErr != nil {
			appLogger.Error("Failed to initialize booking event producer", slog.Any("error", pubErr))
			appLogger.Info("Continuing without booking event publishing")
		} else {
			publisher = kafkaPublisher
			defer publisher.Close()
		}
	}

	// Seat inventory ledger registry with Redis hold mirror
	var mirror inventory.Mirror = inventory.NoopMirror{}
	if db.Redis != nil {
		mirror = inventory.NewRedisMirror(db.GetRedis())
	}
	registry := inventory.NewRegistry(cfg.Inventory.HoldTTL, mirror, auditor, appLogger)

	// Rate limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedis(), &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			BookingRequests: cfg.RateLimit.BookingRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	appRouter := routes.NewRouter(cfg, db, registry, publisher)
	engine := setupEngine(cfg, appRouter, rateLimiter)

	// Rebuild in-memory seat ledgers from persisted seating maps. Seats
	// snapshotted as HELD come back available.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if count, rehydrateErr := appRouter.EventService().RehydrateLedgers(startupCtx); rehydrateErr != nil {
		appLogger.Error("Ledger rehydration failed", slog.Any("error", rehydrateErr))
	} else {
		appLogger.Info("Seat ledgers rehydrated", slog.Int("events", count))
	}
	startupCancel()

	// Expired hold sweeper. Reclaimed holds cancel their pending
	// bookings so abandoned checkouts end up CANCELLED, not stuck.
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	sweeper := inventory.NewSweeper(registry, &inventory.SweeperConfig{
		Interval: cfg.Inventory.SweepInterval,
		OnExpired: func(ctx context.Context, eventID, holdID string) {
			if err := appRouter.BookingService().ExpireHold(ctx, eventID, holdID); err != nil {
				appLogger.Error("Failed to expire checkout", slog.Any("error", err), slog.String("hold_id", holdID))
			}
		},
	})
	sweeper.Start(sweeperCtx)
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis_cache", db.Redis != nil),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	// Persist seat state so the next start rebuilds from recent reality
	if err := appRouter.EventService().SnapshotAll(ctx); err != nil {
		appLogger.Error("Seat state snapshot failed", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEngine(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter.SetupRoutes(engine)
	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
