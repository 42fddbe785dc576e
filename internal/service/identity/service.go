package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/security"
)

// Service is the identity store: it owns user creation, lookup and
// deactivation. Passwords are stored only as bcrypt hashes and never
// leave this package.
type Service struct {
	userRepo     repository.UserRepository
	hospitalRepo repository.HospitalRepository
	hasher       security.PasswordHasher
}

func NewService(userRepo repository.UserRepository, hospitalRepo repository.HospitalRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo:     userRepo,
		hospitalRepo: hospitalRepo,
		hasher:       hasher,
	}
}

// Create stores a new identity. Email and phone uniqueness is
// enforced by the store in one round trip; a duplicate surfaces as
// Conflict. The returned identity never carries the hash.
func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown role: %s", req.Role), "role")
	}
	if req.AdminLevel != nil && req.Role != model.RoleAdmin {
		return nil, apperrors.Validation("admin_level is only valid for admins", "admin_level")
	}

	if req.HospitalID != nil {
		if _, err := s.hospitalRepo.Get(ctx, *req.HospitalID); err != nil {
			return nil, apperrors.Validation("hospital_id does not reference an existing hospital", "hospital_id")
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), "password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		AdminLevel:   req.AdminLevel,
		HospitalID:   req.HospitalID,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitize(user), nil
}

// CreateProvisioned stores an identity created by the provisioning
// workflow: the password is pre-generated server side and the user
// must change it on first login.
func (s *Service) CreateProvisioned(ctx context.Context, name, email, phone, password, role string, hospitalID uuid.UUID) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Name:               name,
		Email:              email,
		Phone:              phone,
		PasswordHash:       hash,
		Role:               role,
		HospitalID:         &hospitalID,
		IsActive:           true,
		MustChangePassword: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitize(user), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

func (s *Service) List(ctx context.Context, role string) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, role)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		users[i] = sanitize(u)
	}
	return users, nil
}

// Deactivate soft-disables an identity. Identities are never
// hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.userRepo.Deactivate(ctx, id)
}

// sanitize strips the password hash from a read path result.
func sanitize(user *model.User) *model.User {
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
