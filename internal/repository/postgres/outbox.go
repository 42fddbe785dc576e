package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
)

// Processing rows older than this are presumed orphaned by a crashed
// worker and become claimable again.
const staleClaimAge = 5 * time.Minute

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return translateError(err, "outbox event")
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE (status IN ('pending', 'retry')
				AND (retry_at IS NULL OR retry_at <= NOW()))
			OR (status = 'processing' AND updated_at < NOW() - $2::interval)
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		)
		RETURNING id, event_type, payload, status, error_message,
			retry_count, retry_at, processed_at, created_at, updated_at
	`
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query, limit, staleClaimAge.String())
	if err != nil {
		return nil, translateError(err, "outbox event")
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = 'processed',
			error_message = NULL,
			processed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err, "outbox event")
	}
	return requireRow(result, "outbox event")
}

func (r *outboxRepository) ScheduleRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = 'retry',
			error_message = $2,
			retry_at = $3,
			retry_count = retry_count + 1,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, errorMessage, retryAt)
	if err != nil {
		return translateError(err, "outbox event")
	}
	return requireRow(result, "outbox event")
}

func (r *outboxRepository) MoveToDeadLetter(ctx context.Context, evt *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO outbox_events_deadletter (
			event_id, event_type, payload, error_message,
			retry_count, last_retry_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	if _, err := tx.ExecContext(ctx, insert, evt.ID, evt.EventType, evt.Payload,
		evt.ErrorMessage, evt.RetryCount, evt.RetryAt); err != nil {
		return fmt.Errorf("failed to insert dead letter: %w", err)
	}

	mark := `
		UPDATE outbox_events
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, mark, evt.ID, evt.ErrorMessage); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}

	return tx.Commit()
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
