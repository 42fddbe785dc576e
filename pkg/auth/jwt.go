package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is reported distinctly so callers can prompt
	// a re-login instead of treating the token as forged.
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the JWT claims carried by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID     uuid.UUID  `json:"user_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
}

// TokenSubject is the identity projection embedded in tokens.
type TokenSubject struct {
	UserID     uuid.UUID
	Email      string
	Role       string
	HospitalID *uuid.UUID
}

// JWTService issues and validates signed bearer tokens.
type JWTService interface {
	GenerateAccessToken(subject TokenSubject) (string, error)
	GenerateRefreshToken(subject TokenSubject) (string, error)
	ValidateToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (*Claims, error)
}

type jwtService struct {
	secret        []byte
	refreshSecret []byte
	expiry        time.Duration
	refreshExpiry time.Duration
}

// NewJWTService creates a JWT service with HMAC signing.
func NewJWTService(secret, refreshSecret string, expiry, refreshExpiry time.Duration) JWTService {
	return &jwtService{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		expiry:        expiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *jwtService) GenerateAccessToken(subject TokenSubject) (string, error) {
	return s.generate(subject, s.secret, s.expiry)
}

func (s *jwtService) GenerateRefreshToken(subject TokenSubject) (string, error) {
	return s.generate(subject, s.refreshSecret, s.refreshExpiry)
}

func (s *jwtService) generate(subject TokenSubject, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		UserID:     subject.UserID,
		Email:      subject.Email,
		Role:       subject.Role,
		HospitalID: subject.HospitalID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	return s.validate(token, s.secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, s.refreshSecret)
}

func (s *jwtService) validate(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
