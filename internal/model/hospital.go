package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Hospital types
const (
	HospitalTypeGeneral        = "general"
	HospitalTypeSpecialty      = "specialty"
	HospitalTypeClinic         = "clinic"
	HospitalTypeEmergency      = "emergency"
	HospitalTypeTeaching       = "teaching"
	HospitalTypeMultispecialty = "multispecialty"
)

// Verification statuses form the partnership state machine:
// pending -> under_review -> approved | rejected.
const (
	VerificationPending     = "pending"
	VerificationUnderReview = "under_review"
	VerificationApproved    = "approved"
	VerificationRejected    = "rejected"
)

// ValidHospitalType reports whether t is a known hospital type.
func ValidHospitalType(t string) bool {
	switch t {
	case HospitalTypeGeneral, HospitalTypeSpecialty, HospitalTypeClinic,
		HospitalTypeEmergency, HospitalTypeTeaching, HospitalTypeMultispecialty:
		return true
	}
	return false
}

// ValidVerificationStatus reports whether s is a known status.
func ValidVerificationStatus(s string) bool {
	switch s {
	case VerificationPending, VerificationUnderReview, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// CanTransitionVerification reports whether the state machine allows
// moving from one status to another. Only forward moves are allowed;
// re-applying the current status is handled as an idempotent no-op
// by the service, not here.
func CanTransitionVerification(from, to string) bool {
	switch from {
	case VerificationPending:
		return to == VerificationUnderReview || to == VerificationApproved || to == VerificationRejected
	case VerificationUnderReview:
		return to == VerificationApproved || to == VerificationRejected
	}
	return false
}

// LockedHospitalFields are immutable to non-admin actors once a
// hospital is approved.
var LockedHospitalFields = []string{"registration_number", "name", "type"}

// Hospital represents a partner organization and its verification
// lifecycle.
type Hospital struct {
	Base
	Name                string         `json:"name" db:"name"`
	RegistrationNumber  string         `json:"registration_number" db:"registration_number"`
	Type                string         `json:"type" db:"type"`
	Address             string         `json:"address" db:"address"`
	City                string         `json:"city" db:"city"`
	State               string         `json:"state" db:"state"`
	PostalCode          string         `json:"postal_code" db:"postal_code"`
	Latitude            *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude           *float64       `json:"longitude,omitempty" db:"longitude"`
	Phone               string         `json:"phone" db:"phone"`
	Email               string         `json:"email" db:"email"`
	Website             *string        `json:"website,omitempty" db:"website"`
	Departments         pq.StringArray `json:"departments" db:"departments"`
	Facilities          pq.StringArray `json:"facilities" db:"facilities"`
	OperatingHours      JSONMap        `json:"operating_hours" db:"operating_hours"`
	TotalBeds           int            `json:"total_beds" db:"total_beds"`
	AvailableBeds       int            `json:"available_beds" db:"available_beds"`
	VerificationStatus  string         `json:"verification_status" db:"verification_status"`
	VerifiedBy          *uuid.UUID     `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt          *time.Time     `json:"verified_at,omitempty" db:"verified_at"`
	VerificationNotes   *string        `json:"verification_notes,omitempty" db:"verification_notes"`
	RejectionReason     *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ManagerID           *uuid.UUID     `json:"manager_id,omitempty" db:"manager_id"`
	IsPartnered         bool           `json:"is_partnered" db:"is_partnered"`
	IsActive            bool           `json:"is_active" db:"is_active"`
	AgreementAccepted   bool           `json:"agreement_accepted" db:"agreement_accepted"`
	AgreementAcceptedAt *time.Time     `json:"agreement_accepted_at,omitempty" db:"agreement_accepted_at"`
}

// HospitalDocument is an opaque document reference; storage
// internals live elsewhere.
type HospitalDocument struct {
	ID         uuid.UUID `json:"id" db:"id"`
	HospitalID uuid.UUID `json:"hospital_id" db:"hospital_id"`
	Name       string    `json:"name" db:"name"`
	URL        string    `json:"url" db:"url"`
	Type       string    `json:"type" db:"type"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// RegisterHospitalRequest is the public self-service registration
// payload. Verification status and manager are never caller-settable.
type RegisterHospitalRequest struct {
	Name               string   `json:"name" binding:"required"`
	RegistrationNumber string   `json:"registration_number" binding:"required"`
	Type               string   `json:"type" binding:"required"`
	Address            string   `json:"address" binding:"required"`
	City               string   `json:"city" binding:"required"`
	State              string   `json:"state" binding:"required"`
	PostalCode         string   `json:"postal_code" binding:"required"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Phone              string   `json:"phone" binding:"required"`
	Email              string   `json:"email" binding:"required,email"`
	Website            *string  `json:"website"`
	Departments        []string `json:"departments" binding:"required,min=1"`
	Facilities         []string `json:"facilities"`
	OperatingHours     JSONMap  `json:"operating_hours"`
	TotalBeds          int      `json:"total_beds"`
	AvailableBeds      int      `json:"available_beds"`
	AgreementAccepted  bool     `json:"agreement_accepted"`
}

// UpdateHospitalRequest carries partial updates. Nil means
// "leave unchanged".
type UpdateHospitalRequest struct {
	Name               *string  `json:"name"`
	RegistrationNumber *string  `json:"registration_number"`
	Type               *string  `json:"type"`
	Address            *string  `json:"address"`
	City               *string  `json:"city"`
	State              *string  `json:"state"`
	PostalCode         *string  `json:"postal_code"`
	Phone              *string  `json:"phone"`
	Website            *string  `json:"website"`
	Departments        []string `json:"departments"`
	Facilities         []string `json:"facilities"`
	OperatingHours     JSONMap  `json:"operating_hours"`
	TotalBeds          *int     `json:"total_beds"`
	AvailableBeds      *int     `json:"available_beds"`
}

// VerificationDecision is an admin's decision applied to a hospital.
type VerificationDecision struct {
	Status          string    `json:"status"`
	Notes           string    `json:"verification_notes"`
	RejectionReason string    `json:"rejection_reason"`
	VerifiedBy      uuid.UUID `json:"verified_by"`
	VerifiedAt      time.Time `json:"verified_at"`
}

// HospitalFilter represents hospital search parameters
type HospitalFilter struct {
	Pagination
	VerificationStatus string `json:"verification_status" form:"status"`
	City               string `json:"city" form:"city"`
	Type               string `json:"type" form:"type"`
}
