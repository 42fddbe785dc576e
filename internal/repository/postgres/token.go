package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/partner-api/internal/repository"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/security"
)

type tokenRepository struct {
	BaseRepository
	encryptor security.Encryptor
}

// NewTokenRepository creates a token repository. Tokens are
// encrypted at rest with the given encryptor.
func NewTokenRepository(base BaseRepository, encryptor security.Encryptor) repository.TokenRepository {
	return &tokenRepository{BaseRepository: base, encryptor: encryptor}
}

func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	sealed, err := r.encryptor.EncryptString(token)
	if err != nil {
		return apperrors.Internal(err)
	}

	query := `
		INSERT INTO user_tokens (user_id, token, type, expires_at, created_at)
		VALUES ($1, $2, 'reset', $3, NOW())
		ON CONFLICT (user_id, type) DO UPDATE
		SET token = $2, expires_at = $3, used_at = NULL, updated_at = NOW()
	`
	_, err = r.db.ExecContext(ctx, query, userID, sealed, expiry)
	return translateError(err, "token")
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	// Tokens are stored encrypted; fetch candidates for comparison
	// after decryption rather than matching ciphertext, since GCM
	// encryption is not deterministic.
	query := `
		SELECT user_id, token
		FROM user_tokens
		WHERE type = 'reset'
		AND expires_at > NOW()
		AND used_at IS NULL
	`
	var rows []struct {
		UserID uuid.UUID `db:"user_id"`
		Token  string    `db:"token"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return uuid.Nil, translateError(err, "token")
	}

	for _, row := range rows {
		plain, err := r.encryptor.DecryptString(row.Token)
		if err != nil {
			continue
		}
		if plain == token {
			return row.UserID, nil
		}
	}
	return uuid.Nil, apperrors.Unauthenticated(nil)
}

func (r *tokenRepository) InvalidateToken(ctx context.Context, token string) error {
	userID, err := r.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	query := `
		UPDATE user_tokens
		SET used_at = NOW()
		WHERE user_id = $1 AND type = 'reset' AND used_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return translateError(err, "token")
	}
	return requireRow(result, "token")
}
