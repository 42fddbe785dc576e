package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		// Create inserts the user; uniqueness of email and phone is
		// enforced by the store in the same round trip and surfaced
		// as a Conflict error.
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, mustChange bool) error
		List(ctx context.Context, role string) ([]*model.User, error)
	}

	HospitalRepository interface {
		// Create inserts the hospital; registration number and email
		// uniqueness is enforced by unique indexes, not a prior read.
		Create(ctx context.Context, hospital *model.Hospital) error
		Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
		Update(ctx context.Context, hospital *model.Hospital) error
		List(ctx context.Context, filter *model.HospitalFilter) ([]*model.Hospital, error)
		// UpdateVerification applies a verification decision only if
		// the current status still equals fromStatus (compare-and-swap).
		// Returns false when no row matched.
		UpdateVerification(ctx context.Context, id uuid.UUID, fromStatus string, decision *model.VerificationDecision, partnered bool) (bool, error)
		SetManager(ctx context.Context, hospitalID, managerID uuid.UUID) error
		AddDocument(ctx context.Context, doc *model.HospitalDocument) error
		ListDocuments(ctx context.Context, hospitalID uuid.UUID) ([]*model.HospitalDocument, error)
	}

	StaffRepository interface {
		Create(ctx context.Context, staff *model.StaffMember) error
		Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
		Update(ctx context.Context, staff *model.StaffMember) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.StaffFilter) ([]*model.StaffMember, error)
	}

	TokenRepository interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateToken(ctx context.Context, token string) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending atomically marks up to limit due events as
		// processing and returns them, skipping rows held by other
		// workers. Stale processing rows are reclaimed.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		ScheduleRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryAt time.Time) error
		// MoveToDeadLetter copies the event to the dead letter table
		// and marks the source row failed in one transaction.
		MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
