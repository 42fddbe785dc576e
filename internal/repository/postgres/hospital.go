package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
)

type hospitalRepository struct {
	BaseRepository
}

func NewHospitalRepository(base BaseRepository) repository.HospitalRepository {
	return &hospitalRepository{base}
}

const hospitalColumns = `
	id, name, registration_number, type, address, city, state, postal_code,
	latitude, longitude, phone, email, website, departments, facilities,
	operating_hours, total_beds, available_beds, verification_status,
	verified_by, verified_at, verification_notes, rejection_reason,
	manager_id, is_partnered, is_active, agreement_accepted,
	agreement_accepted_at, created_at, updated_at, deleted_at
`

func (r *hospitalRepository) Create(ctx context.Context, hospital *model.Hospital) error {
	query := `
		INSERT INTO hospitals (
			id, name, registration_number, type, address, city, state,
			postal_code, latitude, longitude, phone, email, website,
			departments, facilities, operating_hours, total_beds,
			available_beds, verification_status, is_partnered, is_active,
			agreement_accepted, agreement_accepted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
	`
	if hospital.ID == uuid.Nil {
		hospital.ID = uuid.New()
	}
	hospital.CreatedAt = time.Now()
	hospital.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		hospital.ID,
		hospital.Name,
		hospital.RegistrationNumber,
		hospital.Type,
		hospital.Address,
		hospital.City,
		hospital.State,
		hospital.PostalCode,
		hospital.Latitude,
		hospital.Longitude,
		hospital.Phone,
		hospital.Email,
		hospital.Website,
		hospital.Departments,
		hospital.Facilities,
		hospital.OperatingHours,
		hospital.TotalBeds,
		hospital.AvailableBeds,
		hospital.VerificationStatus,
		hospital.IsPartnered,
		hospital.IsActive,
		hospital.AgreementAccepted,
		hospital.AgreementAcceptedAt,
		hospital.CreatedAt,
		hospital.UpdatedAt,
	)
	return translateError(err, "hospital")
}

func (r *hospitalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE id = $1 AND deleted_at IS NULL`

	var hospital model.Hospital
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		return nil, translateError(err, "hospital")
	}
	return &hospital, nil
}

func (r *hospitalRepository) Update(ctx context.Context, hospital *model.Hospital) error {
	query := `
		UPDATE hospitals
		SET name = $1, registration_number = $2, type = $3, address = $4,
			city = $5, state = $6, postal_code = $7, phone = $8,
			website = $9, departments = $10, facilities = $11,
			operating_hours = $12, total_beds = $13, available_beds = $14,
			updated_at = $15
		WHERE id = $16 AND deleted_at IS NULL
	`
	hospital.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		hospital.Name,
		hospital.RegistrationNumber,
		hospital.Type,
		hospital.Address,
		hospital.City,
		hospital.State,
		hospital.PostalCode,
		hospital.Phone,
		hospital.Website,
		hospital.Departments,
		hospital.Facilities,
		hospital.OperatingHours,
		hospital.TotalBeds,
		hospital.AvailableBeds,
		hospital.UpdatedAt,
		hospital.ID,
	)
	if err != nil {
		return translateError(err, "hospital")
	}
	return requireRow(result, "hospital")
}

func (r *hospitalRepository) List(ctx context.Context, filter *model.HospitalFilter) ([]*model.Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE deleted_at IS NULL`
	args := []interface{}{}
	idx := 1

	if filter != nil {
		if filter.VerificationStatus != "" {
			query += fmt.Sprintf(" AND verification_status = $%d", idx)
			args = append(args, filter.VerificationStatus)
			idx++
		}
		if filter.City != "" {
			query += fmt.Sprintf(" AND city = $%d", idx)
			args = append(args, filter.City)
			idx++
		}
		if filter.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", idx)
			args = append(args, filter.Type)
			idx++
		}
	}
	query += " ORDER BY created_at DESC"

	if filter != nil && filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var hospitals []*model.Hospital
	if err := r.db.SelectContext(ctx, &hospitals, query, args...); err != nil {
		return nil, translateError(err, "hospital")
	}
	return hospitals, nil
}

// UpdateVerification is a compare-and-swap: the row is updated only
// if verification_status still equals fromStatus. Concurrent admins
// deciding on the same hospital serialize here; the loser matches
// zero rows and the caller resolves idempotency.
func (r *hospitalRepository) UpdateVerification(ctx context.Context, id uuid.UUID, fromStatus string, decision *model.VerificationDecision, partnered bool) (bool, error) {
	query := `
		UPDATE hospitals
		SET verification_status = $1, verified_by = $2, verified_at = $3,
			verification_notes = $4, rejection_reason = $5,
			is_partnered = $6, updated_at = NOW()
		WHERE id = $7 AND verification_status = $8 AND deleted_at IS NULL
	`
	var rejection *string
	if decision.RejectionReason != "" {
		rejection = &decision.RejectionReason
	}
	var notes *string
	if decision.Notes != "" {
		notes = &decision.Notes
	}

	result, err := r.db.ExecContext(ctx, query,
		decision.Status,
		decision.VerifiedBy,
		decision.VerifiedAt,
		notes,
		rejection,
		partnered,
		id,
		fromStatus,
	)
	if err != nil {
		return false, translateError(err, "hospital")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, translateError(err, "hospital")
	}
	return rows > 0, nil
}

func (r *hospitalRepository) SetManager(ctx context.Context, hospitalID, managerID uuid.UUID) error {
	query := `
		UPDATE hospitals
		SET manager_id = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, managerID, hospitalID)
	if err != nil {
		return translateError(err, "hospital")
	}
	return requireRow(result, "hospital")
}

func (r *hospitalRepository) AddDocument(ctx context.Context, doc *model.HospitalDocument) error {
	query := `
		INSERT INTO hospital_documents (
			id, hospital_id, name, url, type, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.UploadedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.HospitalID,
		doc.Name,
		doc.URL,
		doc.Type,
		doc.UploadedAt,
	)
	return translateError(err, "hospital document")
}

func (r *hospitalRepository) ListDocuments(ctx context.Context, hospitalID uuid.UUID) ([]*model.HospitalDocument, error) {
	query := `
		SELECT id, hospital_id, name, url, type, uploaded_at
		FROM hospital_documents
		WHERE hospital_id = $1
		ORDER BY uploaded_at DESC
	`
	var docs []*model.HospitalDocument
	if err := r.db.SelectContext(ctx, &docs, query, hospitalID); err != nil {
		return nil, translateError(err, "hospital document")
	}
	return docs, nil
}
