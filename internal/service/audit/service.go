package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
)

// Service records audit entries for sensitive actions. Failures are
// logged, never propagated; auditing must not fail the audited
// operation.
type Service struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

func NewService(repo repository.AuditRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

type LogOptions struct {
	HospitalID *uuid.UUID
	Changes    interface{}
	Metadata   interface{}
	IPAddress  string
	UserAgent  string
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, userID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
	}

	if opts != nil {
		entry.HospitalID = opts.HospitalID
		entry.IPAddress = opts.IPAddress
		entry.UserAgent = opts.UserAgent
		if opts.Changes != nil {
			if b, err := json.Marshal(opts.Changes); err == nil {
				entry.Changes = b
			}
		}
		if opts.Metadata != nil {
			if b, err := json.Marshal(opts.Metadata); err == nil {
				entry.Metadata = b
			}
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, entityType, entityID)
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
