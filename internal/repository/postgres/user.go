package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, name, email, phone, password_hash, role, admin_level,
			permissions, hospital_id, is_active, must_change_password,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.AdminLevel,
		user.Permissions,
		user.HospitalID,
		user.IsActive,
		user.MustChangePassword,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translateError(err, "user")
}

const userColumns = `
	id, name, email, phone, password_hash, role, admin_level,
	permissions, hospital_id, is_active, must_change_password,
	last_login_at, login_attempts, last_login_attempt,
	created_at, updated_at, deleted_at
`

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, phone = $2, hospital_id = $3, is_active = $4,
			last_login_at = $5, login_attempts = $6, last_login_attempt = $7,
			updated_at = $8
		WHERE id = $9
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Phone,
		user.HospitalID,
		user.IsActive,
		user.LastLoginAt,
		user.LoginAttempts,
		user.LastLoginAttempt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return translateError(err, "user")
	}
	return requireRow(result, "user")
}

func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err, "user")
	}
	return requireRow(result, "user")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, mustChange bool) error {
	query := `
		UPDATE users
		SET password_hash = $1, must_change_password = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, passwordHash, mustChange, id)
	if err != nil {
		return translateError(err, "user")
	}
	return requireRow(result, "user")
}

func (r *userRepository) List(ctx context.Context, role string) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []interface{}{}
	if role != "" {
		query += ` AND role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, translateError(err, "user")
	}
	return users, nil
}
