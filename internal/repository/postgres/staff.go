package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

const staffColumns = `
	id, hospital_id, role, first_name, last_name, email, phone,
	department, experience_years, salary, languages, is_active,
	is_available_for_work, created_by, doctor_profile,
	receptionist_profile, created_at, updated_at, deleted_at
`

func (r *staffRepository) Create(ctx context.Context, staff *model.StaffMember) error {
	query := `
		INSERT INTO staff_members (
			id, hospital_id, role, first_name, last_name, email, phone,
			department, experience_years, salary, languages, is_active,
			is_available_for_work, created_by, doctor_profile,
			receptionist_profile, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18
		)
	`
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		staff.ID,
		staff.HospitalID,
		staff.Role,
		staff.FirstName,
		staff.LastName,
		staff.Email,
		staff.Phone,
		staff.Department,
		staff.ExperienceYears,
		staff.Salary,
		staff.Languages,
		staff.IsActive,
		staff.IsAvailableForWork,
		staff.CreatedBy,
		staff.Doctor,
		staff.Receptionist,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	return translateError(err, "staff member")
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id = $1 AND deleted_at IS NULL`

	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, translateError(err, "staff member")
	}
	return &staff, nil
}

// Update never touches hospital_id, email or role; those are
// immutable post-creation.
func (r *staffRepository) Update(ctx context.Context, staff *model.StaffMember) error {
	query := `
		UPDATE staff_members
		SET first_name = $1, last_name = $2, phone = $3, department = $4,
			experience_years = $5, salary = $6, languages = $7,
			is_available_for_work = $8, doctor_profile = $9,
			receptionist_profile = $10, updated_at = $11
		WHERE id = $12 AND deleted_at IS NULL
	`
	staff.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		staff.FirstName,
		staff.LastName,
		staff.Phone,
		staff.Department,
		staff.ExperienceYears,
		staff.Salary,
		staff.Languages,
		staff.IsAvailableForWork,
		staff.Doctor,
		staff.Receptionist,
		staff.UpdatedAt,
		staff.ID,
	)
	if err != nil {
		return translateError(err, "staff member")
	}
	return requireRow(result, "staff member")
}

func (r *staffRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE staff_members
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err, "staff member")
	}
	return requireRow(result, "staff member")
}

func (r *staffRepository) List(ctx context.Context, filter *model.StaffFilter) ([]*model.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE deleted_at IS NULL`
	args := []interface{}{}
	idx := 1

	if filter != nil {
		if filter.HospitalID != uuid.Nil {
			query += fmt.Sprintf(" AND hospital_id = $%d", idx)
			args = append(args, filter.HospitalID)
			idx++
		}
		if filter.Role != "" {
			query += fmt.Sprintf(" AND role = $%d", idx)
			args = append(args, filter.Role)
			idx++
		}
		if filter.Department != "" {
			query += fmt.Sprintf(" AND department = $%d", idx)
			args = append(args, filter.Department)
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

	var members []*model.StaffMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, translateError(err, "staff member")
	}
	return members, nil
}
