package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	"github.com/healthbridge/partner-api/internal/service/audit"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

// Service is the staff registry: doctors and receptionists scoped
// to one hospital, with role-conditional validation.
type Service struct {
	repo         repository.StaffRepository
	hospitalRepo repository.HospitalRepository
	auditor      *audit.Service
	logger       zerolog.Logger
}

func NewService(repo repository.StaffRepository, hospitalRepo repository.HospitalRepository,
	auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		hospitalRepo: hospitalRepo,
		auditor:      auditor,
		logger:       logger,
	}
}

func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateStaffRequest) (*model.StaffMember, error) {
	if _, err := s.hospitalRepo.Get(ctx, req.HospitalID); err != nil {
		return nil, err
	}

	member := &model.StaffMember{
		HospitalID:         req.HospitalID,
		Role:               req.Role,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		Department:         req.Department,
		ExperienceYears:    req.ExperienceYears,
		Salary:             req.Salary,
		Languages:          req.Languages,
		IsActive:           true,
		IsAvailableForWork: true,
		CreatedBy:          actor.ID,
		Doctor:             req.Doctor,
		Receptionist:       req.Receptionist,
	}
	if len(member.Languages) == 0 {
		member.Languages = []string{"English"}
	}

	if err := Validate(member); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionCreate, model.AuditEntityStaff, member.ID, &audit.LogOptions{
		HospitalID: &member.HospitalID,
	})

	return member, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter *model.StaffFilter) ([]*model.StaffMember, error) {
	return s.repo.List(ctx, filter)
}

// Update merges a partial update. Hospital, email and role are
// stripped from the payload before merge, whatever the caller sent;
// changing them would break referential and role invariants.
func (s *Service) Update(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateStaffRequest) (*model.StaffMember, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, apperrors.NotFound("staff member", nil)
	}

	req.Strip()

	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		member.LastName = *req.LastName
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Department != nil {
		member.Department = *req.Department
	}
	if req.ExperienceYears != nil {
		member.ExperienceYears = *req.ExperienceYears
	}
	if req.Salary != nil {
		member.Salary = req.Salary
	}
	if req.Languages != nil {
		member.Languages = req.Languages
	}
	if req.IsAvailableForWork != nil {
		member.IsAvailableForWork = *req.IsAvailableForWork
	}
	if req.Doctor != nil {
		member.Doctor = req.Doctor
	}
	if req.Receptionist != nil {
		member.Receptionist = req.Receptionist
	}

	if err := Validate(member); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionUpdate, model.AuditEntityStaff, member.ID, &audit.LogOptions{
		HospitalID: &member.HospitalID,
		Changes:    req,
	})

	return member, nil
}

// Deactivate soft-deletes; staff are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionDeactivate, model.AuditEntityStaff, member.ID, &audit.LogOptions{
		HospitalID: &member.HospitalID,
	})
	return nil
}
