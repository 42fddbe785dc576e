package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	"github.com/healthbridge/partner-api/pkg/messaging"
	"github.com/healthbridge/partner-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// RetentionAge controls how long processed events are kept
	// before the periodic sweep deletes them.
	RetentionAge time.Duration
}

const retentionSweepInterval = time.Hour

// OutboxProcessor drains pending outbox events and publishes them to
// the broker. Events that keep failing past MaxRetries go to the dead
// letter table instead of blocking the queue.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 30 * time.Second
	}
	if config.RetentionAge <= 0 {
		config.RetentionAge = 7 * 24 * time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: m,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	sweep := time.NewTicker(retentionSweepInterval)
	defer sweep.Stop()

	p.logger.Info().Msg("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("failed to process outbox batch")
			}
		case <-sweep.C:
			p.sweepProcessed(ctx)
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "error").Inc()
		return fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to process outbox event")
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := p.broker.Publish(ctx, event.EventType, event.Payload)
	if err == nil {
		p.metrics.OutboxEventsProcessed.Inc()
		return p.repo.MarkProcessed(ctx, event.ID)
	}

	p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()

	if event.RetryCount+1 >= p.config.MaxRetries {
		p.metrics.OutboxEventsFailed.Inc()
		errStr := err.Error()
		event.ErrorMessage = &errStr
		if dlqErr := p.repo.MoveToDeadLetter(ctx, event); dlqErr != nil {
			return fmt.Errorf("failed to dead-letter event: %w", dlqErr)
		}
		return err
	}

	retryAt := time.Now().Add(p.config.RetryBackoff * time.Duration(event.RetryCount+1))
	if updateErr := p.repo.ScheduleRetry(ctx, event.ID, err.Error(), retryAt); updateErr != nil {
		return fmt.Errorf("failed to schedule retry: %w", updateErr)
	}
	return err
}

func (p *OutboxProcessor) sweepProcessed(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.RetentionAge)
	deleted, err := p.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to sweep processed events")
		return
	}
	if deleted > 0 {
		p.logger.Info().Int64("deleted", deleted).Msg("swept processed outbox events")
	}
}
