package staff

import (
	"fmt"

	"github.com/healthbridge/partner-api/internal/model"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

// Validate checks a staff record against its role and fills
// deterministic defaults. It is pure: same input, same output. The
// doctor and receptionist profiles are mutually exclusive; the one
// not matching the role is cleared, never merged.
func Validate(candidate *model.StaffMember) error {
	switch candidate.Role {
	case model.StaffRoleDoctor:
		return validateDoctor(candidate)
	case model.StaffRoleReceptionist:
		return validateReceptionist(candidate)
	default:
		return apperrors.Validation(fmt.Sprintf("unknown staff role: %s", candidate.Role), "role")
	}
}

func validateDoctor(candidate *model.StaffMember) error {
	candidate.Receptionist = nil

	if candidate.Doctor == nil {
		return apperrors.MissingField("doctor_profile")
	}
	profile := candidate.Doctor

	if profile.Specialization == "" {
		return apperrors.MissingField("specialization")
	}
	if !model.ValidSpecialization(profile.Specialization) {
		return apperrors.Validation(
			fmt.Sprintf("unknown specialization: %s", profile.Specialization), "specialization")
	}
	if profile.Qualifications == "" {
		return apperrors.MissingField("qualifications")
	}
	if profile.LicenseNumber == "" {
		return apperrors.MissingField("licenseNumber")
	}

	if profile.ConsultationFee == 0 {
		profile.ConsultationFee = model.DefaultConsultationFee
	}
	if len(profile.Availability) == 0 {
		profile.Availability = model.DefaultDoctorAvailability()
	}
	return nil
}

func validateReceptionist(candidate *model.StaffMember) error {
	candidate.Doctor = nil

	// Receptionists only ever belong to Reception or Administration.
	// Anything else is normalized, not rejected.
	if candidate.Department != model.DepartmentAdministration {
		candidate.Department = model.DepartmentReception
	}

	if candidate.Receptionist == nil {
		candidate.Receptionist = &model.ReceptionistProfile{}
	}
	hours := &candidate.Receptionist.WorkingHours
	if hours.StartTime == "" {
		hours.StartTime = "09:00"
	}
	if hours.EndTime == "" {
		hours.EndTime = "17:00"
	}
	if len(hours.WorkingDays) == 0 {
		hours.WorkingDays = model.DefaultWorkingDays()
	}
	return nil
}
