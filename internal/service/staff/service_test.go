package staff

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/service/audit"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

type fakeStaffRepo struct {
	members map[uuid.UUID]*model.StaffMember
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{members: make(map[uuid.UUID]*model.StaffMember)}
}

func (r *fakeStaffRepo) Create(_ context.Context, m *model.StaffMember) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	copied := *m
	r.members[m.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) Get(_ context.Context, id uuid.UUID) (*model.StaffMember, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, apperrors.NotFound("staff member", nil)
	}
	copied := *m
	return &copied, nil
}

func (r *fakeStaffRepo) Update(_ context.Context, m *model.StaffMember) error {
	if _, ok := r.members[m.ID]; !ok {
		return apperrors.NotFound("staff member", nil)
	}
	copied := *m
	r.members[m.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	m, ok := r.members[id]
	if !ok {
		return apperrors.NotFound("staff member", nil)
	}
	m.IsActive = false
	return nil
}

func (r *fakeStaffRepo) List(_ context.Context, filter *model.StaffFilter) ([]*model.StaffMember, error) {
	out := make([]*model.StaffMember, 0, len(r.members))
	for _, m := range r.members {
		if filter != nil && filter.HospitalID != uuid.Nil && m.HospitalID != filter.HospitalID {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

type fakeHospitalRepo struct {
	hospitals map[uuid.UUID]*model.Hospital
}

func (r *fakeHospitalRepo) Create(_ context.Context, _ *model.Hospital) error { return nil }

func (r *fakeHospitalRepo) Get(_ context.Context, id uuid.UUID) (*model.Hospital, error) {
	h, ok := r.hospitals[id]
	if !ok {
		return nil, apperrors.NotFound("hospital", nil)
	}
	return h, nil
}

func (r *fakeHospitalRepo) Update(_ context.Context, _ *model.Hospital) error { return nil }

func (r *fakeHospitalRepo) List(_ context.Context, _ *model.HospitalFilter) ([]*model.Hospital, error) {
	return nil, nil
}

func (r *fakeHospitalRepo) UpdateVerification(_ context.Context, _ uuid.UUID, _ string, _ *model.VerificationDecision, _ bool) (bool, error) {
	return false, nil
}

func (r *fakeHospitalRepo) SetManager(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *fakeHospitalRepo) AddDocument(_ context.Context, _ *model.HospitalDocument) error {
	return nil
}

func (r *fakeHospitalRepo) ListDocuments(_ context.Context, _ uuid.UUID) ([]*model.HospitalDocument, error) {
	return nil, nil
}

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T) (*Service, *fakeStaffRepo, uuid.UUID) {
	t.Helper()
	hospitalID := uuid.New()
	hospitals := &fakeHospitalRepo{hospitals: map[uuid.UUID]*model.Hospital{
		hospitalID: {Base: model.Base{ID: hospitalID}, Name: "City Care"},
	}}
	repo := newFakeStaffRepo()
	auditor := audit.NewService(&fakeAuditRepo{}, zerolog.Nop())
	return NewService(repo, hospitals, auditor, zerolog.Nop()), repo, hospitalID
}

func testAdmin() *model.User {
	return &model.User{
		Base: model.Base{ID: uuid.New()},
		Role: model.RoleAdmin,
	}
}

func doctorCreateRequest(hospitalID uuid.UUID) *model.CreateStaffRequest {
	return &model.CreateStaffRequest{
		HospitalID: hospitalID,
		Role:       model.StaffRoleDoctor,
		FirstName:  "Asha",
		LastName:   "Rao",
		Email:      "asha.rao@citycare.example",
		Phone:      "+1-555-0142",
		Department: "Cardiology",
		Doctor: &model.DoctorProfile{
			Specialization: model.SpecializationCardiology,
			Qualifications: "MD, DM Cardiology",
			LicenseNumber:  "LIC-9931",
		},
	}
}

func TestCreateDoctorFillsDefaults(t *testing.T) {
	svc, _, hospitalID := newTestService(t)

	member, err := svc.Create(context.Background(), testAdmin(), doctorCreateRequest(hospitalID))
	require.NoError(t, err)

	assert.True(t, member.IsActive)
	assert.True(t, member.IsAvailableForWork)
	assert.Equal(t, []string{"English"}, []string(member.Languages))
	assert.Equal(t, float64(model.DefaultConsultationFee), member.Doctor.ConsultationFee)
	assert.Len(t, member.Doctor.Availability, 6)
	assert.Nil(t, member.Receptionist)
}

func TestCreateRejectsUnknownHospital(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), testAdmin(), doctorCreateRequest(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestUpdateIgnoresImmutableFields(t *testing.T) {
	svc, repo, hospitalID := newTestService(t)
	actor := testAdmin()

	member, err := svc.Create(context.Background(), actor, doctorCreateRequest(hospitalID))
	require.NoError(t, err)

	otherHospital := uuid.New()
	otherEmail := "poached@rival.example"
	otherRole := model.StaffRoleReceptionist
	newPhone := "+1-555-0177"
	updated, err := svc.Update(context.Background(), actor, member.ID, &model.UpdateStaffRequest{
		Phone:      &newPhone,
		HospitalID: &otherHospital,
		Email:      &otherEmail,
		Role:       &otherRole,
	})
	require.NoError(t, err)

	assert.Equal(t, newPhone, updated.Phone)
	assert.Equal(t, hospitalID, updated.HospitalID)
	assert.Equal(t, "asha.rao@citycare.example", updated.Email)
	assert.Equal(t, model.StaffRoleDoctor, updated.Role)

	stored, err := repo.Get(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, hospitalID, stored.HospitalID)
	assert.Equal(t, "asha.rao@citycare.example", stored.Email)
	assert.Equal(t, model.StaffRoleDoctor, stored.Role)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	svc, _, hospitalID := newTestService(t)
	actor := testAdmin()

	member, err := svc.Create(context.Background(), actor, doctorCreateRequest(hospitalID))
	require.NoError(t, err)

	years := 12
	updated, err := svc.Update(context.Background(), actor, member.ID, &model.UpdateStaffRequest{
		ExperienceYears: &years,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, updated.ExperienceYears)
	assert.Equal(t, member.FirstName, updated.FirstName)
	assert.Equal(t, member.Phone, updated.Phone)
}

func TestUpdateDeactivatedMemberNotFound(t *testing.T) {
	svc, repo, hospitalID := newTestService(t)
	actor := testAdmin()

	member, err := svc.Create(context.Background(), actor, doctorCreateRequest(hospitalID))
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), actor, member.ID))

	name := "Renamed"
	_, err = svc.Update(context.Background(), actor, member.ID, &model.UpdateStaffRequest{
		FirstName: &name,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))

	stored, err := repo.Get(context.Background(), member.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestCreateReceptionistNormalizesDepartment(t *testing.T) {
	svc, _, hospitalID := newTestService(t)

	member, err := svc.Create(context.Background(), testAdmin(), &model.CreateStaffRequest{
		HospitalID: hospitalID,
		Role:       model.StaffRoleReceptionist,
		FirstName:  "Meera",
		LastName:   "Shah",
		Email:      "meera.shah@citycare.example",
		Phone:      "+1-555-0188",
		Department: "Cardiology",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DepartmentReception, member.Department)
	require.NotNil(t, member.Receptionist)
	assert.Equal(t, "09:00", member.Receptionist.WorkingHours.StartTime)
	assert.Equal(t, model.DefaultWorkingDays(), member.Receptionist.WorkingHours.WorkingDays)
	assert.Nil(t, member.Doctor)
}
