package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject() TokenSubject {
	hospitalID := uuid.New()
	return TokenSubject{
		UserID:     uuid.New(),
		Email:      "manager@hospital.example",
		Role:       "hospital_manager",
		HospitalID: &hospitalID,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	subject := testSubject()

	token, err := svc.GenerateAccessToken(subject)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject.UserID, claims.UserID)
	assert.Equal(t, subject.Email, claims.Email)
	assert.Equal(t, subject.Role, claims.Role)
	require.NotNil(t, claims.HospitalID)
	assert.Equal(t, *subject.HospitalID, *claims.HospitalID)
}

func TestExpiredTokenIsReportedDistinctly(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	token, err := svc.GenerateAccessToken(testSubject())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecretIsInvalid(t *testing.T) {
	issuer := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	verifier := NewJWTService("other-secret", "refresh-secret", time.Hour, 24*time.Hour)

	token, err := issuer.GenerateAccessToken(testSubject())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGarbageTokenIsInvalid(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestRefreshTokenUsesItsOwnSecret(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	subject := testSubject()

	refresh, err := svc.GenerateRefreshToken(subject)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, subject.UserID, claims.UserID)

	// A refresh token must not pass as an access token.
	_, err = svc.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
