package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, hospital_id, action, entity_type, entity_id,
			changes, metadata, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.HospitalID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Changes,
		log.Metadata,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	)
	return translateError(err, "audit log")
}

func (r *auditRepository) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	query := `
		SELECT id, user_id, hospital_id, action, entity_type, entity_id,
			changes, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`
	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, entityType, entityID); err != nil {
		return nil, translateError(err, "audit log")
	}
	return logs, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM audit_logs WHERE created_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, translateError(err, "audit log")
	}
	return result.RowsAffected()
}
