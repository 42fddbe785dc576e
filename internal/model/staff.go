package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Staff roles. A staff record is exactly one of the two; the
// role-specific profile is a tagged union keyed by Role.
const (
	StaffRoleDoctor       = "doctor"
	StaffRoleReceptionist = "receptionist"
)

// Doctor specializations
const (
	SpecializationCardiology    = "cardiology"
	SpecializationDermatology   = "dermatology"
	SpecializationNeurology     = "neurology"
	SpecializationOrthopedics   = "orthopedics"
	SpecializationPediatrics    = "pediatrics"
	SpecializationPsychiatry    = "psychiatry"
	SpecializationRadiology     = "radiology"
	SpecializationGeneralMed    = "general_medicine"
	SpecializationGynecology    = "gynecology"
	SpecializationOphthalmology = "ophthalmology"
)

// Receptionist department values; anything else is normalized to
// Reception.
const (
	DepartmentReception      = "Reception"
	DepartmentAdministration = "Administration"
)

// DefaultConsultationFee applies when a doctor is created without
// an explicit fee.
const DefaultConsultationFee = 500

// ValidStaffRole reports whether role is doctor or receptionist.
func ValidStaffRole(role string) bool {
	return role == StaffRoleDoctor || role == StaffRoleReceptionist
}

// ValidSpecialization reports whether s is a known specialization.
func ValidSpecialization(s string) bool {
	switch s {
	case SpecializationCardiology, SpecializationDermatology, SpecializationNeurology,
		SpecializationOrthopedics, SpecializationPediatrics, SpecializationPsychiatry,
		SpecializationRadiology, SpecializationGeneralMed, SpecializationGynecology,
		SpecializationOphthalmology:
		return true
	}
	return false
}

// AvailabilitySlot is one weekly availability entry for a doctor.
type AvailabilitySlot struct {
	Day         string `json:"day" binding:"omitempty,weekday"`
	StartTime   string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime     string `json:"end_time" binding:"omitempty,hhmm"`
	IsAvailable bool   `json:"is_available"`
}

// WorkingHours is a receptionist's shift definition.
type WorkingHours struct {
	StartTime   string   `json:"start_time" binding:"omitempty,hhmm"`
	EndTime     string   `json:"end_time" binding:"omitempty,hhmm"`
	WorkingDays []string `json:"working_days" binding:"omitempty,dive,weekday"`
}

// DoctorProfile carries the fields only doctors have.
type DoctorProfile struct {
	Specialization  string             `json:"specialization"`
	Qualifications  string             `json:"qualifications"`
	LicenseNumber   string             `json:"license_number"`
	ConsultationFee float64            `json:"consultation_fee"`
	Availability    []AvailabilitySlot `json:"availability"`
}

// ReceptionistProfile carries the fields only receptionists have.
type ReceptionistProfile struct {
	WorkingHours WorkingHours `json:"working_hours"`
}

func (p *DoctorProfile) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *DoctorProfile) Scan(src interface{}) error {
	return scanJSON(src, p)
}

func (p *ReceptionistProfile) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *ReceptionistProfile) Scan(src interface{}) error {
	return scanJSON(src, p)
}

func scanJSON(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	return json.Unmarshal(b, dst)
}

// StaffMember is a doctor or receptionist scoped to exactly one
// hospital. Exactly one of Doctor/Receptionist is set, matching Role.
type StaffMember struct {
	Base
	HospitalID         uuid.UUID            `json:"hospital_id" db:"hospital_id"`
	Role               string               `json:"role" db:"role"`
	FirstName          string               `json:"first_name" db:"first_name"`
	LastName           string               `json:"last_name" db:"last_name"`
	Email              string               `json:"email" db:"email"`
	Phone              string               `json:"phone" db:"phone"`
	Department         string               `json:"department" db:"department"`
	ExperienceYears    int                  `json:"experience_years" db:"experience_years"`
	Salary             *float64             `json:"salary,omitempty" db:"salary"`
	Languages          pq.StringArray       `json:"languages" db:"languages"`
	IsActive           bool                 `json:"is_active" db:"is_active"`
	IsAvailableForWork bool                 `json:"is_available_for_work" db:"is_available_for_work"`
	CreatedBy          uuid.UUID            `json:"created_by" db:"created_by"`
	Doctor             *DoctorProfile       `json:"doctor_profile,omitempty" db:"doctor_profile"`
	Receptionist       *ReceptionistProfile `json:"receptionist_profile,omitempty" db:"receptionist_profile"`
}

// DefaultDoctorAvailability returns the standard six-day schedule
// applied when a doctor is created without explicit availability.
// Deterministic so identical creation calls produce identical
// schedules.
func DefaultDoctorAvailability() []AvailabilitySlot {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	slots := make([]AvailabilitySlot, 0, 6)
	for _, day := range days {
		slots = append(slots, AvailabilitySlot{
			Day:         day,
			StartTime:   "09:00",
			EndTime:     "17:00",
			IsAvailable: true,
		})
	}
	slots = append(slots, AvailabilitySlot{
		Day:         "Saturday",
		StartTime:   "09:00",
		EndTime:     "14:00",
		IsAvailable: true,
	})
	return slots
}

// DefaultWorkingDays is the receptionist default when none are given.
func DefaultWorkingDays() []string {
	return []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
}

// CreateStaffRequest is the staff creation payload.
type CreateStaffRequest struct {
	HospitalID      uuid.UUID            `json:"hospital_id" binding:"required"`
	Role            string               `json:"role" binding:"required,oneof=doctor receptionist"`
	FirstName       string               `json:"first_name" binding:"required"`
	LastName        string               `json:"last_name" binding:"required"`
	Email           string               `json:"email" binding:"required,email"`
	Phone           string               `json:"phone" binding:"required"`
	Department      string               `json:"department" binding:"required"`
	ExperienceYears int                  `json:"experience_years"`
	Salary          *float64             `json:"salary"`
	Languages       []string             `json:"languages"`
	Doctor          *DoctorProfile       `json:"doctor_profile"`
	Receptionist    *ReceptionistProfile `json:"receptionist_profile"`
}

// UpdateStaffRequest carries partial staff updates. Hospital, email
// and role are immutable and ignored if supplied.
type UpdateStaffRequest struct {
	FirstName          *string              `json:"first_name"`
	LastName           *string              `json:"last_name"`
	Phone              *string              `json:"phone"`
	Department         *string              `json:"department"`
	ExperienceYears    *int                 `json:"experience_years"`
	Salary             *float64             `json:"salary"`
	Languages          []string             `json:"languages"`
	IsAvailableForWork *bool                `json:"is_available_for_work"`
	Doctor             *DoctorProfile       `json:"doctor_profile"`
	Receptionist       *ReceptionistProfile `json:"receptionist_profile"`

	// Ignored on update; present so callers sending them do not
	// fail binding. See Strip.
	HospitalID *uuid.UUID `json:"hospital_id"`
	Email      *string    `json:"email"`
	Role       *string    `json:"role"`
}

// Strip removes the immutable fields from the payload before merge.
// This is a hard invariant, not a validation error.
func (r *UpdateStaffRequest) Strip() {
	r.HospitalID = nil
	r.Email = nil
	r.Role = nil
}

// StaffFilter represents staff search parameters
type StaffFilter struct {
	Pagination
	HospitalID uuid.UUID `json:"hospital_id" form:"hospital_id"`
	Role       string    `json:"role" form:"role"`
	Department string    `json:"department" form:"department"`
}
