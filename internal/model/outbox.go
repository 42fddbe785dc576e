package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusRetry      OutboxStatus = "retry"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types published through the outbox.
const (
	EventHospitalRegistered = "HOSPITAL_REGISTERED"
	EventHospitalVerified   = "HOSPITAL_VERIFIED"
	EventHospitalUpdated    = "HOSPITAL_UPDATED"
	EventStaffCreated       = "STAFF_CREATED"
	EventStaffUpdated       = "STAFF_UPDATED"
	EventStaffDeactivated   = "STAFF_DEACTIVATED"
)

// OutboxEvent is a domain event recorded transactionally and
// published asynchronously by the outbox worker.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
