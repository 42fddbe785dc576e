package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/email"
	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	"github.com/healthbridge/partner-api/internal/service/audit"
	"github.com/healthbridge/partner-api/pkg/auth"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/security"
)

const (
	resetTokenExpiry = 1 * time.Hour
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
	auditor   *audit.Service
	logger    zerolog.Logger
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, emailSvc email.Service,
	auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		emailSvc:  emailSvc,
		auditor:   auditor,
		logger:    logger,
	}
}

// Register creates a patient identity from a public self-signup.
// The role is always patient regardless of input.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), "password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         model.RolePatient,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues tokens. An unknown email, a
// deactivated account and a bad password all fail identically with
// Unauthenticated.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	return s.login(ctx, email, password, "")
}

// AdminLogin is Login plus an admin role gate.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	return s.login(ctx, email, password, model.RoleAdmin)
}

func (s *Service) login(ctx context.Context, emailAddr, password, requiredRole string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, apperrors.Unauthenticated(nil)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated(nil)
	}

	if user.LoginAttempts >= maxLoginAttempts && user.LastLoginAttempt != nil {
		if time.Since(*user.LastLoginAttempt) < lockoutDuration {
			return nil, apperrors.Unauthenticated(nil)
		}
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		now := time.Now()
		user.LastLoginAttempt = &now
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error().Err(err).Msg("failed to record login attempt")
		}
		return nil, apperrors.Unauthenticated(nil)
	}

	if requiredRole != "" && !user.HasRole(requiredRole) {
		return nil, apperrors.Forbidden()
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to update login timestamp")
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionLogin, model.AuditEntityAuth, user.ID, &audit.LogOptions{
		HospitalID: user.HospitalID,
		Metadata:   map[string]interface{}{"email": user.Email},
	})

	return tokens, nil
}

// ValidateToken resolves a bearer token into its claims, reporting
// expiry distinctly from forgery so callers can prompt a re-login.
func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		if err == auth.ErrTokenExpired {
			return nil, apperrors.TokenExpired(err)
		}
		return nil, apperrors.Unauthenticated(err)
	}
	return claims, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		if err == auth.ErrTokenExpired {
			return nil, apperrors.TokenExpired(err)
		}
		return nil, apperrors.Unauthenticated(err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthenticated(nil)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated(nil)
	}

	return s.generateTokens(user)
}

// ChangePassword verifies the current password and replaces it,
// clearing the must-change flag set by provisioning.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return apperrors.Unauthenticated(nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Validation(err.Error(), "new_password")
	}

	return s.userRepo.UpdatePassword(ctx, userID, hash, false)
}

// RequestPasswordReset issues a reset token. An unknown email is
// reported as success to avoid account enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		s.logger.Debug().Str("email", emailAddr).Msg("password reset requested for unknown email")
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return err
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to send reset email")
		return apperrors.Unavailable("failed to send reset email", err)
	}
	return nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Validation(err.Error(), "new_password")
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash, false); err != nil {
		return err
	}
	return s.tokenRepo.InvalidateToken(ctx, token)
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	subject := auth.TokenSubject{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		HospitalID: user.HospitalID,
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(subject)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(subject)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	public := *user
	public.PasswordHash = ""

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &public,
	}, nil
}
