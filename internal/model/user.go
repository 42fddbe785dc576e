package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User roles
const (
	RolePatient         = "patient"
	RoleDoctor          = "doctor"
	RoleNurse           = "nurse"
	RoleReceptionist    = "receptionist"
	RoleHospitalManager = "hospital_manager"
	RoleAdmin           = "admin"
)

// Admin levels, meaningful only when role is admin
const (
	AdminLevelSuper     = "super_admin"
	AdminLevelAdmin     = "admin"
	AdminLevelModerator = "moderator"
)

// User represents an authenticated actor: a patient, staff member,
// hospital manager or platform admin.
type User struct {
	Base
	Name               string         `json:"name" db:"name"`
	Email              string         `json:"email" db:"email"`
	Phone              string         `json:"phone" db:"phone"`
	PasswordHash       string         `json:"-" db:"password_hash"`
	Role               string         `json:"role" db:"role"`
	AdminLevel         *string        `json:"admin_level,omitempty" db:"admin_level"`
	Permissions        pq.StringArray `json:"permissions" db:"permissions"`
	HospitalID         *uuid.UUID     `json:"hospital_id,omitempty" db:"hospital_id"`
	IsActive           bool           `json:"is_active" db:"is_active"`
	MustChangePassword bool           `json:"must_change_password" db:"must_change_password"`
	LastLoginAt        *time.Time     `json:"last_login_at,omitempty" db:"last_login_at"`
	LoginAttempts      int            `json:"-" db:"login_attempts"`
	LastLoginAttempt   *time.Time     `json:"-" db:"last_login_attempt"`
}

// HasRole reports whether the user's role matches any of the given
// roles, case-insensitively.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(u.Role, r) {
			return true
		}
	}
	return false
}

// ManagesHospital reports whether the user is the manager affiliated
// with the given hospital.
func (u *User) ManagesHospital(hospitalID uuid.UUID) bool {
	return u.Role == RoleHospitalManager && u.HospitalID != nil && *u.HospitalID == hospitalID
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleNurse, RoleReceptionist, RoleHospitalManager, RoleAdmin:
		return true
	}
	return false
}

// CreateUserRequest represents user creation parameters used by
// admin and provisioning flows.
type CreateUserRequest struct {
	Name       string     `json:"name" binding:"required"`
	Email      string     `json:"email" binding:"required,email"`
	Phone      string     `json:"phone" binding:"required"`
	Password   string     `json:"password" binding:"required,min=8"`
	Role       string     `json:"role" binding:"required"`
	AdminLevel *string    `json:"admin_level"`
	HospitalID *uuid.UUID `json:"hospital_id"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}
