package provisioning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/email"
	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/service/audit"
	"github.com/healthbridge/partner-api/internal/service/hospital"
	"github.com/healthbridge/partner-api/internal/service/identity"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/security"
)

// notifyTimeout bounds the email dispatch; the state transition has
// already committed by then and is never rolled back.
const notifyTimeout = 10 * time.Second

// Step outcomes.
const (
	StepVerify  = "verify"
	StepManager = "create_manager"
	StepNotify  = "notify"

	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// StepResult is one saga step's outcome.
type StepResult struct {
	Step    string `json:"step"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Result is the full provisioning outcome. Partial is true when the
// verification committed but a later step failed; the caller may
// retry only the failed sub-step.
type Result struct {
	Hospital *model.Hospital `json:"hospital"`
	Manager  *model.User     `json:"manager,omitempty"`
	Steps    []StepResult    `json:"steps"`
	Partial  bool            `json:"partial"`
}

// ManagerDetails are the optional manager account parameters
// supplied with an approval.
type ManagerDetails struct {
	Name  string
	Email string
	Phone string
}

// Request is one admin decision to run through the workflow.
type Request struct {
	HospitalID      uuid.UUID
	Status          string
	Notes           string
	RejectionReason string
	DecidedBy       uuid.UUID
	Manager         *ManagerDetails
}

// Service orchestrates hospital approval: state transition, manager
// account creation and notification. Steps two and three are never
// rolled back into step one; a valid verification decision is not
// lost to a secondary failure.
type Service struct {
	hospitals *hospital.Service
	identity  *identity.Service
	emailSvc  email.Service
	generator security.PasswordGenerator
	auditor   *audit.Service
	logger    zerolog.Logger
}

func NewService(hospitals *hospital.Service, identitySvc *identity.Service, emailSvc email.Service,
	generator security.PasswordGenerator, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		hospitals: hospitals,
		identity:  identitySvc,
		emailSvc:  emailSvc,
		generator: generator,
		auditor:   auditor,
		logger:    logger,
	}
}

// Run executes the workflow. Step 1 failing aborts everything; step
// 2 or 3 failing yields a partial result with the failed step named.
func (s *Service) Run(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{}

	// Step 1: apply the state transition. Abort on failure.
	verification, err := s.hospitals.SetVerification(ctx, req.HospitalID, &model.VerificationDecision{
		Status:          req.Status,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		VerifiedBy:      req.DecidedBy,
	})
	if err != nil {
		return nil, err
	}
	result.Hospital = verification.Hospital
	result.Steps = append(result.Steps, StepResult{Step: StepVerify, Outcome: OutcomeOK})

	// Tell the hospital contact what was decided. Best effort: a
	// delivery failure never degrades the saga outcome, and a no-op
	// decision is not re-announced.
	if !verification.NoOp {
		s.notifyDecision(ctx, result.Hospital, req)
	}

	if req.Status != model.VerificationApproved {
		return result, nil
	}

	// Step 2: create the manager identity when details were given.
	// A repeated approval is a no-op and must not mint a second
	// manager; same for a hospital that already has one.
	var tempPassword string
	switch {
	case req.Manager == nil:
		result.Steps = append(result.Steps, StepResult{Step: StepManager, Outcome: OutcomeSkipped})
	case verification.NoOp || result.Hospital.ManagerID != nil:
		result.Steps = append(result.Steps, StepResult{Step: StepManager, Outcome: OutcomeSkipped})
	default:
		manager, password, err := s.createManager(ctx, req)
		if err != nil {
			s.logger.Error().Err(err).
				Str("hospital_id", req.HospitalID.String()).
				Msg("manager creation failed after approval")
			result.Steps = append(result.Steps, StepResult{Step: StepManager, Outcome: OutcomeFailed, Error: err.Error()})
			result.Partial = true
			// Approved but manager creation failed: report, don't roll back.
			return result, apperrors.PartialSuccess("approved, manager creation failed", err)
		}
		result.Manager = manager
		tempPassword = password
		result.Steps = append(result.Steps, StepResult{Step: StepManager, Outcome: OutcomeOK})
	}

	// Step 3: notify. Time-bounded, never reverses steps 1-2.
	if result.Manager != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		err := s.emailSvc.SendManagerCredentials(notifyCtx, result.Manager.Email, result.Hospital.Name, tempPassword)
		cancel()
		if err != nil {
			s.logger.Error().Err(err).
				Str("hospital_id", req.HospitalID.String()).
				Msg("manager notification failed")
			result.Steps = append(result.Steps, StepResult{Step: StepNotify, Outcome: OutcomeFailed, Error: err.Error()})
			result.Partial = true
			return result, apperrors.PartialSuccess("approved, notification failed", err)
		}
		result.Steps = append(result.Steps, StepResult{Step: StepNotify, Outcome: OutcomeOK})
	} else {
		result.Steps = append(result.Steps, StepResult{Step: StepNotify, Outcome: OutcomeSkipped})
	}

	s.auditor.Log(ctx, req.DecidedBy, model.AuditActionProvision, model.AuditEntityHospital, req.HospitalID, &audit.LogOptions{
		HospitalID: &req.HospitalID,
		Metadata:   result.Steps,
	})

	return result, nil
}

func (s *Service) notifyDecision(ctx context.Context, hospital *model.Hospital, req *Request) {
	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	err := s.emailSvc.SendVerificationDecision(notifyCtx, hospital.Email, hospital.Name, req.Status, req.RejectionReason)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("hospital_id", hospital.ID.String()).
			Str("status", req.Status).
			Msg("decision notification failed")
	}
}

// createManager generates credentials server-side and creates the
// manager identity bound to the approved hospital.
func (s *Service) createManager(ctx context.Context, req *Request) (*model.User, string, error) {
	password, err := s.generator.Generate()
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	manager, err := s.identity.CreateProvisioned(ctx, req.Manager.Name, req.Manager.Email,
		req.Manager.Phone, password, model.RoleHospitalManager, req.HospitalID)
	if err != nil {
		return nil, "", err
	}

	if err := s.hospitals.AssignManager(ctx, req.HospitalID, manager.ID); err != nil {
		return nil, "", err
	}
	return manager, password, nil
}
