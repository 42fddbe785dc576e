package provisioning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/service/audit"
	"github.com/healthbridge/partner-api/internal/service/hospital"
	"github.com/healthbridge/partner-api/internal/service/identity"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/security"
)

type fakeHospitalRepo struct {
	hospitals map[uuid.UUID]*model.Hospital
}

func newFakeHospitalRepo() *fakeHospitalRepo {
	return &fakeHospitalRepo{hospitals: make(map[uuid.UUID]*model.Hospital)}
}

func (r *fakeHospitalRepo) Create(_ context.Context, h *model.Hospital) error {
	h.ID = uuid.New()
	r.hospitals[h.ID] = h
	return nil
}

func (r *fakeHospitalRepo) Get(_ context.Context, id uuid.UUID) (*model.Hospital, error) {
	h, ok := r.hospitals[id]
	if !ok {
		return nil, apperrors.NotFound("hospital", nil)
	}
	copied := *h
	return &copied, nil
}

func (r *fakeHospitalRepo) Update(_ context.Context, h *model.Hospital) error {
	copied := *h
	r.hospitals[h.ID] = &copied
	return nil
}

func (r *fakeHospitalRepo) List(_ context.Context, _ *model.HospitalFilter) ([]*model.Hospital, error) {
	return nil, nil
}

func (r *fakeHospitalRepo) UpdateVerification(_ context.Context, id uuid.UUID, fromStatus string, decision *model.VerificationDecision, partnered bool) (bool, error) {
	h, ok := r.hospitals[id]
	if !ok {
		return false, apperrors.NotFound("hospital", nil)
	}
	if h.VerificationStatus != fromStatus {
		return false, nil
	}
	h.VerificationStatus = decision.Status
	h.IsPartnered = partnered
	h.VerifiedBy = &decision.VerifiedBy
	h.VerifiedAt = &decision.VerifiedAt
	return true, nil
}

func (r *fakeHospitalRepo) SetManager(_ context.Context, hospitalID, managerID uuid.UUID) error {
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return apperrors.NotFound("hospital", nil)
	}
	h.ManagerID = &managerID
	return nil
}

func (r *fakeHospitalRepo) AddDocument(_ context.Context, _ *model.HospitalDocument) error {
	return nil
}

func (r *fakeHospitalRepo) ListDocuments(_ context.Context, _ uuid.UUID) ([]*model.HospitalDocument, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users     map[uuid.UUID]*model.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperrors.Conflict("user with this email already exists", nil)
		}
	}
	user.ID = uuid.New()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string, mustChange bool) error {
	if u, ok := r.users[id]; ok {
		u.PasswordHash = hash
		u.MustChangePassword = mustChange
	}
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ string) ([]*model.User, error) {
	return nil, nil
}

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (fakeAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return nil, nil
}
func (fakeAuditRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

type decisionCall struct {
	to     string
	status string
	reason string
}

type fakeEmailService struct {
	sendErr     error
	decisionErr error
	sentTo      []string
	passwords   []string
	decisions   []decisionCall
}

func (s *fakeEmailService) SendWelcome(_ context.Context, _, _ string) error { return nil }
func (s *fakeEmailService) SendPasswordReset(_ context.Context, _, _ string) error {
	return nil
}
func (s *fakeEmailService) SendManagerCredentials(_ context.Context, to, _, tempPassword string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sentTo = append(s.sentTo, to)
	s.passwords = append(s.passwords, tempPassword)
	return nil
}
func (s *fakeEmailService) SendVerificationDecision(_ context.Context, to, _, status, reason string) error {
	if s.decisionErr != nil {
		return s.decisionErr
	}
	s.decisions = append(s.decisions, decisionCall{to: to, status: status, reason: reason})
	return nil
}

type fixedGenerator struct{ password string }

func (g fixedGenerator) Generate() (string, error) { return g.password, nil }

type testEnv struct {
	svc      *Service
	hospRepo *fakeHospitalRepo
	userRepo *fakeUserRepo
	email    *fakeEmailService
}

func newTestEnv() *testEnv {
	hospRepo := newFakeHospitalRepo()
	userRepo := newFakeUserRepo()
	emailSvc := &fakeEmailService{}

	auditor := audit.NewService(fakeAuditRepo{}, zerolog.Nop())
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hospitals := hospital.NewService(hospRepo, auditor, zerolog.Nop())
	identities := identity.NewService(userRepo, hospRepo, hasher)

	svc := NewService(hospitals, identities, emailSvc, fixedGenerator{password: "Temp#Pass1234xyz"}, auditor, zerolog.Nop())
	return &testEnv{svc: svc, hospRepo: hospRepo, userRepo: userRepo, email: emailSvc}
}

func (e *testEnv) seedHospital(status string) *model.Hospital {
	h := &model.Hospital{
		Name:               "Seed Hospital",
		RegistrationNumber: "REG-SEED-1",
		Type:               model.HospitalTypeGeneral,
		Email:              "seed@hospital.example",
		VerificationStatus: status,
		IsActive:           true,
	}
	_ = e.hospRepo.Create(context.Background(), h)
	return h
}

func managerDetails() *ManagerDetails {
	return &ManagerDetails{
		Name:  "Mira Shah",
		Email: "mira@hospital.example",
		Phone: "+911112223334",
	}
}

func stepOutcome(t *testing.T, steps []StepResult, step string) string {
	t.Helper()
	for _, s := range steps {
		if s.Step == step {
			return s.Outcome
		}
	}
	t.Fatalf("step %s not present in %v", step, steps)
	return ""
}

func TestRunApprovalProvisionsManagerAndNotifies(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager:    managerDetails(),
	})
	require.NoError(t, err)

	assert.False(t, result.Partial)
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepVerify))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepManager))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepNotify))

	require.NotNil(t, result.Manager)
	assert.Equal(t, model.RoleHospitalManager, result.Manager.Role)
	assert.Empty(t, result.Manager.PasswordHash)

	stored, err := env.hospRepo.Get(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationApproved, stored.VerificationStatus)
	require.NotNil(t, stored.ManagerID)
	assert.Equal(t, result.Manager.ID, *stored.ManagerID)

	require.Len(t, env.email.sentTo, 1)
	assert.Equal(t, "mira@hospital.example", env.email.sentTo[0])
	assert.Equal(t, "Temp#Pass1234xyz", env.email.passwords[0])

	// The hospital contact hears about the decision as well.
	require.Len(t, env.email.decisions, 1)
	assert.Equal(t, "seed@hospital.example", env.email.decisions[0].to)
	assert.Equal(t, model.VerificationApproved, env.email.decisions[0].status)
}

func TestRunApprovalWithoutManagerSkipsDownstreamSteps(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
	})
	require.NoError(t, err)

	assert.False(t, result.Partial)
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepVerify))
	assert.Equal(t, OutcomeSkipped, stepOutcome(t, result.Steps, StepManager))
	assert.Equal(t, OutcomeSkipped, stepOutcome(t, result.Steps, StepNotify))
	assert.Nil(t, result.Manager)
	assert.Empty(t, env.email.sentTo)
}

func TestRunRejectionStopsAfterVerify(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID:      h.ID,
		Status:          model.VerificationRejected,
		RejectionReason: "license expired",
		DecidedBy:       uuid.New(),
		Manager:         managerDetails(),
	})
	require.NoError(t, err)

	require.Len(t, result.Steps, 1)
	assert.Equal(t, StepVerify, result.Steps[0].Step)
	assert.Empty(t, env.userRepo.users)
	assert.Empty(t, env.email.sentTo)

	require.Len(t, env.email.decisions, 1)
	assert.Equal(t, "seed@hospital.example", env.email.decisions[0].to)
	assert.Equal(t, model.VerificationRejected, env.email.decisions[0].status)
	assert.Equal(t, "license expired", env.email.decisions[0].reason)
}

func TestRunInvalidTransitionAborts(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationRejected)

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager:    managerDetails(),
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, apperrors.ErrStateTransition, apperrors.CodeOf(err))
	assert.Empty(t, env.userRepo.users)
}

func TestRunRepeatedApprovalDoesNotMintSecondManager(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)

	first, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager:    managerDetails(),
	})
	require.NoError(t, err)
	require.NotNil(t, first.Manager)

	second, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager: &ManagerDetails{
			Name:  "Second Manager",
			Email: "second@hospital.example",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, stepOutcome(t, second.Steps, StepManager))
	assert.Nil(t, second.Manager)
	assert.Len(t, env.userRepo.users, 1)
	assert.Len(t, env.email.sentTo, 1)
	// A repeated decision is not re-announced.
	assert.Len(t, env.email.decisions, 1)
}

func TestRunDecisionNoticeFailureDoesNotDegradeOutcome(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)
	env.email.decisionErr = errors.New("smtp connection refused")

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager:    managerDetails(),
	})
	require.NoError(t, err)

	assert.False(t, result.Partial)
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepVerify))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepManager))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepNotify))
	assert.Empty(t, env.email.decisions)
}

func TestRunManagerConflictYieldsPartial(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)

	// The manager email is already taken by another identity.
	require.NoError(t, env.userRepo.Create(context.Background(), &model.User{
		Email: "mira@hospital.example",
		Role:  model.RolePatient,
	}))

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager:    managerDetails(),
	})
	require.Error(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Partial)
	assert.Equal(t, apperrors.ErrPartialSuccess, apperrors.CodeOf(err))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepVerify))
	assert.Equal(t, OutcomeFailed, stepOutcome(t, result.Steps, StepManager))

	// The approval itself stands.
	stored, getErr := env.hospRepo.Get(context.Background(), h.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.VerificationApproved, stored.VerificationStatus)
}

func TestRunNotificationFailureYieldsPartial(t *testing.T) {
	env := newTestEnv()
	h := env.seedHospital(model.VerificationPending)
	env.email.sendErr = errors.New("smtp connection refused")

	result, err := env.svc.Run(context.Background(), &Request{
		HospitalID: h.ID,
		Status:     model.VerificationApproved,
		DecidedBy:  uuid.New(),
		Manager:    managerDetails(),
	})
	require.Error(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Partial)
	assert.Equal(t, apperrors.ErrPartialSuccess, apperrors.CodeOf(err))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepVerify))
	assert.Equal(t, OutcomeOK, stepOutcome(t, result.Steps, StepManager))
	assert.Equal(t, OutcomeFailed, stepOutcome(t, result.Steps, StepNotify))

	// Manager exists and verification stands; only the notification
	// needs a retry.
	stored, getErr := env.hospRepo.Get(context.Background(), h.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.VerificationApproved, stored.VerificationStatus)
	require.NotNil(t, stored.ManagerID)
}
