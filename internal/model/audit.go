package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records a sensitive action taken by an actor against an
// entity. HospitalID is set when the action is hospital-scoped.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	HospitalID *uuid.UUID      `json:"hospital_id,omitempty" db:"hospital_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDeactivate = "deactivate"
	AuditActionLogin      = "login"
	AuditActionVerify     = "verify"
	AuditActionProvision  = "provision"

	// Entity types
	AuditEntityUser     = "user"
	AuditEntityHospital = "hospital"
	AuditEntityStaff    = "staff"
	AuditEntityAuth     = "auth"
)
