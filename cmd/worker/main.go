package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/healthbridge/partner-api/internal/repository/postgres"
	"github.com/healthbridge/partner-api/pkg/logger"
	"github.com/healthbridge/partner-api/pkg/messaging/redis"
	"github.com/healthbridge/partner-api/pkg/metrics"
	"github.com/healthbridge/partner-api/pkg/worker"
)

// WorkerConfig is read straight from the environment; the worker is
// deployed separately from the API and carries no config file.
type WorkerConfig struct {
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	RedisAddr          string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword      string        `envconfig:"REDIS_PASSWORD"`
	RedisDB            int           `envconfig:"REDIS_DB" default:"0"`
	BatchSize          int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval       time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	MaxRetries         int           `envconfig:"OUTBOX_MAX_RETRIES" default:"5"`
	RetryBackoff       time.Duration `envconfig:"OUTBOX_RETRY_BACKOFF" default:"30s"`
	RetentionAge       time.Duration `envconfig:"OUTBOX_RETENTION_AGE" default:"168h"`
	AuditRetentionDays int           `envconfig:"AUDIT_RETENTION_DAYS" default:"365"`
	HealthPort         int           `envconfig:"HEALTH_PORT" default:"8081"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var cfg WorkerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	appLogger := logger.NewLogger("worker", &logger.Config{
		Level: logger.ParseLevel(cfg.LogLevel),
	})

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 10,
	}, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create redis broker")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	processor, err := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:    cfg.BatchSize,
			PollInterval: cfg.PollInterval,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			RetentionAge: cfg.RetentionAge,
		},
		appLogger,
		metrics.NewMetrics("partner_api", "worker"),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid outbox processor configuration")
	}

	cleanup := worker.NewAuditCleanupWorker(auditRepo, cfg.AuditRetentionDays, 24*time.Hour, appLogger)

	startHealthServer(cfg.HealthPort, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info().Msg("shutting down")
		cancel()
	}()

	go cleanup.Start(ctx)
	processor.Start(ctx)
}

func startHealthServer(port int, db *sqlx.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error().Err(err).Msg("health server failed")
		}
	}()
}
