package hospital

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	"github.com/healthbridge/partner-api/internal/service/audit"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

// Service is the hospital registry: self-service registration, the
// verification state machine and the post-approval field lock.
type Service struct {
	repo    repository.HospitalRepository
	auditor *audit.Service
	logger  zerolog.Logger
}

func NewService(repo repository.HospitalRepository, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{repo: repo, auditor: auditor, logger: logger}
}

// Register creates a hospital from public self-registration. The
// verification status is always pending and no manager is attached,
// regardless of input. Duplicate registration numbers and emails
// surface as Conflict from the store's unique indexes; there is no
// prior existence read.
func (s *Service) Register(ctx context.Context, req *model.RegisterHospitalRequest) (*model.Hospital, error) {
	if !model.ValidHospitalType(req.Type) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown hospital type: %s", req.Type), "type")
	}
	if len(req.Departments) == 0 {
		return nil, apperrors.MissingField("departments")
	}

	hospital := &model.Hospital{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Type:               req.Type,
		Address:            req.Address,
		City:               req.City,
		State:              req.State,
		PostalCode:         req.PostalCode,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Phone:              req.Phone,
		Email:              req.Email,
		Website:            req.Website,
		Departments:        req.Departments,
		Facilities:         req.Facilities,
		OperatingHours:     req.OperatingHours,
		TotalBeds:          req.TotalBeds,
		AvailableBeds:      req.AvailableBeds,
		VerificationStatus: model.VerificationPending,
		IsPartnered:        false,
		IsActive:           true,
		AgreementAccepted:  req.AgreementAccepted,
	}
	if req.AgreementAccepted {
		now := time.Now()
		hospital.AgreementAcceptedAt = &now
	}

	if err := s.repo.Create(ctx, hospital); err != nil {
		return nil, err
	}
	return hospital, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter *model.HospitalFilter) ([]*model.Hospital, error) {
	return s.repo.List(ctx, filter)
}

// Update applies a partial update on behalf of actor. Once the
// hospital is approved, non-admin actors may not touch registration
// number, name or type; such an update is rejected with FieldLocked
// no matter what else it contains.
func (s *Service) Update(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateHospitalRequest) (*model.Hospital, error) {
	hospital, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if hospital.VerificationStatus == model.VerificationApproved && !actor.HasRole(model.RoleAdmin) {
		if locked := lockedFieldChanges(hospital, req); len(locked) > 0 {
			return nil, apperrors.FieldLocked(locked...)
		}
	}

	if req.Type != nil && !model.ValidHospitalType(*req.Type) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown hospital type: %s", *req.Type), "type")
	}
	if req.Departments != nil && len(req.Departments) == 0 {
		return nil, apperrors.MissingField("departments")
	}

	applyUpdate(hospital, req)

	if err := s.repo.Update(ctx, hospital); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionUpdate, model.AuditEntityHospital, hospital.ID, &audit.LogOptions{
		HospitalID: &hospital.ID,
		Changes:    req,
	})

	return hospital, nil
}

// SetVerificationResult reports what a decision did.
type SetVerificationResult struct {
	Hospital *model.Hospital
	// NoOp is true when the decision re-applied the current status.
	NoOp bool
}

// SetVerification drives the state machine. Only forward moves are
// legal; a repeat of the current status is an idempotent no-op. The
// transition is applied with a compare-and-swap on the current
// status, so concurrent deciders serialize at the storage layer.
func (s *Service) SetVerification(ctx context.Context, hospitalID uuid.UUID, decision *model.VerificationDecision) (*SetVerificationResult, error) {
	if !model.ValidVerificationStatus(decision.Status) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown verification status: %s", decision.Status), "status")
	}
	if decision.Status == model.VerificationRejected && decision.RejectionReason == "" {
		return nil, apperrors.MissingField("rejection_reason")
	}

	hospital, err := s.repo.Get(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	if hospital.VerificationStatus == decision.Status {
		return &SetVerificationResult{Hospital: hospital, NoOp: true}, nil
	}

	if !model.CanTransitionVerification(hospital.VerificationStatus, decision.Status) {
		return nil, apperrors.StateTransition(hospital.VerificationStatus, decision.Status)
	}

	decision.VerifiedAt = time.Now()
	partnered := decision.Status == model.VerificationApproved

	applied, err := s.repo.UpdateVerification(ctx, hospitalID, hospital.VerificationStatus, decision, partnered)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost a race with a concurrent decision. Re-read: if the
		// winner applied the same status, treat ours as the
		// idempotent duplicate it is.
		current, err := s.repo.Get(ctx, hospitalID)
		if err != nil {
			return nil, err
		}
		if current.VerificationStatus == decision.Status {
			return &SetVerificationResult{Hospital: current, NoOp: true}, nil
		}
		return nil, apperrors.StateTransition(current.VerificationStatus, decision.Status)
	}

	updated, err := s.repo.Get(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, decision.VerifiedBy, model.AuditActionVerify, model.AuditEntityHospital, hospitalID, &audit.LogOptions{
		HospitalID: &hospitalID,
		Changes: map[string]interface{}{
			"from":   hospital.VerificationStatus,
			"to":     decision.Status,
			"notes":  decision.Notes,
			"reason": decision.RejectionReason,
		},
	})

	return &SetVerificationResult{Hospital: updated}, nil
}

// AssignManager links an existing identity as the hospital manager.
func (s *Service) AssignManager(ctx context.Context, hospitalID, managerID uuid.UUID) error {
	return s.repo.SetManager(ctx, hospitalID, managerID)
}

func (s *Service) AddDocument(ctx context.Context, doc *model.HospitalDocument) error {
	if doc.URL == "" {
		return apperrors.MissingField("url")
	}
	if doc.Name == "" {
		return apperrors.MissingField("name")
	}
	return s.repo.AddDocument(ctx, doc)
}

func (s *Service) ListDocuments(ctx context.Context, hospitalID uuid.UUID) ([]*model.HospitalDocument, error) {
	return s.repo.ListDocuments(ctx, hospitalID)
}

// lockedFieldChanges returns the locked fields the request actually
// changes. Sending the current value back is not a change.
func lockedFieldChanges(hospital *model.Hospital, req *model.UpdateHospitalRequest) []string {
	var locked []string
	if req.RegistrationNumber != nil && *req.RegistrationNumber != hospital.RegistrationNumber {
		locked = append(locked, "registration_number")
	}
	if req.Name != nil && *req.Name != hospital.Name {
		locked = append(locked, "name")
	}
	if req.Type != nil && *req.Type != hospital.Type {
		locked = append(locked, "type")
	}
	return locked
}

func applyUpdate(hospital *model.Hospital, req *model.UpdateHospitalRequest) {
	if req.Name != nil {
		hospital.Name = *req.Name
	}
	if req.RegistrationNumber != nil {
		hospital.RegistrationNumber = *req.RegistrationNumber
	}
	if req.Type != nil {
		hospital.Type = *req.Type
	}
	if req.Address != nil {
		hospital.Address = *req.Address
	}
	if req.City != nil {
		hospital.City = *req.City
	}
	if req.State != nil {
		hospital.State = *req.State
	}
	if req.PostalCode != nil {
		hospital.PostalCode = *req.PostalCode
	}
	if req.Phone != nil {
		hospital.Phone = *req.Phone
	}
	if req.Website != nil {
		hospital.Website = req.Website
	}
	if req.Departments != nil {
		hospital.Departments = req.Departments
	}
	if req.Facilities != nil {
		hospital.Facilities = req.Facilities
	}
	if req.OperatingHours != nil {
		hospital.OperatingHours = req.OperatingHours
	}
	if req.TotalBeds != nil {
		hospital.TotalBeds = *req.TotalBeds
	}
	if req.AvailableBeds != nil {
		hospital.AvailableBeds = *req.AvailableBeds
	}
}
