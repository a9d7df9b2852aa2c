package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkraev/linkforge/config"
	appmodel "github.com/mkraev/linkforge/internal/app/model"
	appquota "github.com/mkraev/linkforge/internal/app/quota"
	apprepository "github.com/mkraev/linkforge/internal/app/repository"
	appserver "github.com/mkraev/linkforge/internal/app/server"
	appservice "github.com/mkraev/linkforge/internal/app/service"
	"github.com/mkraev/linkforge/internal/infra/logger"
	infraNATS "github.com/mkraev/linkforge/internal/infra/nats"
	infraPostgres "github.com/mkraev/linkforge/internal/infra/postgres"
	infraPrometheus "github.com/mkraev/linkforge/internal/infra/prometheus"
	infraRedis "github.com/mkraev/linkforge/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int64("quota", cfg.Shortener.Quota),
		zap.Duration("quota_window", cfg.Shortener.QuotaWindow),
		zap.String("quota_fail_mode", cfg.Shortener.QuotaFailMode),
		zap.Int("default_ttl_hours", cfg.Shortener.DefaultTTLHours),
	)

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.LinkEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	tracker := appquota.NewTracker(
		appquota.NewRedisStore(redisClient, apprepository.QuotaKeyPrefix),
		appquota.Config{
			Quota:    cfg.Shortener.Quota,
			Window:   cfg.Shortener.QuotaWindow,
			FailOpen: cfg.Shortener.QuotaFailMode == config.QuotaFailOpen,
		},
		log,
	)

	filter := appservice.NewSlugFilter(cfg.Shortener.BloomCapacity, cfg.Shortener.BloomFPRate)
	publisher := appservice.NewEventPublisher(js)

	linkService := appservice.NewLinkService(
		apprepository.NewLinkRepository(redisClient),
		tracker,
		filter,
		publisher,
		appservice.Config{
			Keyspace:        cfg.Shortener.Keyspace,
			MaxAttempts:     cfg.Shortener.MaxAttempts,
			DefaultTTLHours: cfg.Shortener.DefaultTTLHours,
		},
		log,
	)

	eventRepo := apprepository.NewLinkEventRepository(gormDB)
	consumer := appservice.NewEventConsumer(js, log, eventRepo)
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start link event consumer", zap.Error(err))
	}

	reaper := appservice.NewEventReaper(log, eventRepo)
	reaper.Start()
	defer reaper.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:   log,
		Links:    linkService,
		Postgres: pool,
		Redis:    redisClient,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down HTTP server", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", zap.String("addr", addr))
	if err := server.Listen(addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
