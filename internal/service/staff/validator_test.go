package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/partner-api/internal/model"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

func doctorCandidate() *model.StaffMember {
	return &model.StaffMember{
		Role: model.StaffRoleDoctor,
		Doctor: &model.DoctorProfile{
			Specialization: model.SpecializationCardiology,
			Qualifications: "MBBS, MD",
			LicenseNumber:  "MED-12345",
		},
	}
}

func TestValidateDoctorDefaults(t *testing.T) {
	candidate := doctorCandidate()

	require.NoError(t, Validate(candidate))

	assert.Equal(t, float64(model.DefaultConsultationFee), candidate.Doctor.ConsultationFee)
	require.Len(t, candidate.Doctor.Availability, 6)
	assert.Equal(t, "Monday", candidate.Doctor.Availability[0].Day)
	assert.Equal(t, "09:00", candidate.Doctor.Availability[0].StartTime)
	assert.Equal(t, "17:00", candidate.Doctor.Availability[0].EndTime)
	assert.Equal(t, "Saturday", candidate.Doctor.Availability[5].Day)
	assert.Equal(t, "14:00", candidate.Doctor.Availability[5].EndTime)
}

func TestValidateDoctorDefaultsAreDeterministic(t *testing.T) {
	first := doctorCandidate()
	second := doctorCandidate()

	require.NoError(t, Validate(first))
	require.NoError(t, Validate(second))

	assert.Equal(t, first.Doctor.Availability, second.Doctor.Availability)
	assert.Equal(t, first.Doctor.ConsultationFee, second.Doctor.ConsultationFee)
}

func TestValidateDoctorMissingLicense(t *testing.T) {
	candidate := doctorCandidate()
	candidate.Doctor.LicenseNumber = ""

	err := Validate(candidate)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "licenseNumber")
}

func TestValidateDoctorMissingProfile(t *testing.T) {
	candidate := &model.StaffMember{Role: model.StaffRoleDoctor}

	err := Validate(candidate)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "doctor_profile")
}

func TestValidateDoctorUnknownSpecialization(t *testing.T) {
	candidate := doctorCandidate()
	candidate.Doctor.Specialization = "astrology"

	err := Validate(candidate)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestValidateDoctorClearsReceptionistProfile(t *testing.T) {
	candidate := doctorCandidate()
	candidate.Receptionist = &model.ReceptionistProfile{
		WorkingHours: model.WorkingHours{StartTime: "08:00"},
	}

	require.NoError(t, Validate(candidate))
	assert.Nil(t, candidate.Receptionist)
}

func TestValidateDoctorKeepsExplicitFee(t *testing.T) {
	candidate := doctorCandidate()
	candidate.Doctor.ConsultationFee = 1200

	require.NoError(t, Validate(candidate))
	assert.Equal(t, float64(1200), candidate.Doctor.ConsultationFee)
}

func TestValidateReceptionistNormalizesDepartment(t *testing.T) {
	tests := []struct {
		name       string
		department string
		want       string
	}{
		{"cardiology becomes reception", "Cardiology", model.DepartmentReception},
		{"empty becomes reception", "", model.DepartmentReception},
		{"administration is kept", model.DepartmentAdministration, model.DepartmentAdministration},
		{"reception is kept", model.DepartmentReception, model.DepartmentReception},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := &model.StaffMember{
				Role:       model.StaffRoleReceptionist,
				Department: tt.department,
			}
			require.NoError(t, Validate(candidate))
			assert.Equal(t, tt.want, candidate.Department)
		})
	}
}

func TestValidateReceptionistDefaults(t *testing.T) {
	candidate := &model.StaffMember{Role: model.StaffRoleReceptionist}

	require.NoError(t, Validate(candidate))

	require.NotNil(t, candidate.Receptionist)
	hours := candidate.Receptionist.WorkingHours
	assert.Equal(t, "09:00", hours.StartTime)
	assert.Equal(t, "17:00", hours.EndTime)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}, hours.WorkingDays)
}

func TestValidateReceptionistClearsDoctorProfile(t *testing.T) {
	candidate := &model.StaffMember{
		Role:   model.StaffRoleReceptionist,
		Doctor: &model.DoctorProfile{Specialization: model.SpecializationCardiology},
	}

	require.NoError(t, Validate(candidate))
	assert.Nil(t, candidate.Doctor)
}

func TestValidateUnknownRole(t *testing.T) {
	err := Validate(&model.StaffMember{Role: "janitor"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}
