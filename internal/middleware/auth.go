package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	"github.com/healthbridge/partner-api/pkg/auth"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
)

// ContextIdentity is the gin context key holding the authenticated
// identity after Authenticate ran.
const ContextIdentity = "identity"

const (
	identityCacheTTL     = 30 * time.Second
	identityCacheCleanup = 1 * time.Minute
)

// TokenValidator resolves a bearer token into claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware is the authorization gate: a token check, an
// identity load, then role and hospital-scope enforcement. It never
// writes to storage; attaching the identity to the request context
// is its only side effect.
type AuthMiddleware struct {
	validator TokenValidator
	userRepo  repository.UserRepository
	cache     *cache.Cache
}

func NewAuthMiddleware(validator TokenValidator, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		userRepo:  userRepo,
		cache:     cache.New(identityCacheTTL, identityCacheCleanup),
	}
}

// Authenticate verifies the bearer token and loads the identity.
// A missing identity and a deactivated one fail identically.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthenticated(c, "invalid authorization format")
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.ErrTokenExpired {
				abortWith(c, http.StatusUnauthorized, apperrors.ErrTokenExpired, "token expired")
				return
			}
			abortUnauthenticated(c, "invalid token")
			return
		}

		identity, err := m.loadIdentity(c.Request.Context(), claims.UserID)
		if err != nil || !identity.IsActive {
			abortUnauthenticated(c, "invalid token")
			return
		}

		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// RequireRoles enforces role membership, case-insensitively.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if identity == nil {
			abortUnauthenticated(c, "authentication required")
			return
		}

		if !identity.HasRole(roles...) {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireHospitalScope restricts hospital_manager actors to their
// own hospital on routes targeting a specific hospital id. Admins
// bypass. The response never reveals whether the target exists.
func (m *AuthMiddleware) RequireHospitalScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if identity == nil {
			abortUnauthenticated(c, "authentication required")
			return
		}

		if identity.HasRole(model.RoleAdmin) {
			c.Next()
			return
		}

		target, err := uuid.Parse(c.Param(param))
		if err != nil {
			abortForbidden(c)
			return
		}

		if !identity.ManagesHospital(target) {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the authenticated identity set by
// Authenticate, or nil.
func IdentityFromContext(c *gin.Context) *model.User {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	identity, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return identity
}

func (m *AuthMiddleware) loadIdentity(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := id.String()
	if cached, ok := m.cache.Get(key); ok {
		return cached.(*model.User), nil
	}

	identity, err := m.userRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, identity, cache.DefaultExpiration)
	return identity, nil
}

func abortUnauthenticated(c *gin.Context, msg string) {
	abortWith(c, http.StatusUnauthorized, apperrors.ErrUnauthenticated, msg)
}

// abortForbidden always carries the same body so a denial cannot be
// used to probe for resource existence.
func abortForbidden(c *gin.Context) {
	abortWith(c, http.StatusForbidden, apperrors.ErrForbidden, "access denied")
}

func abortWith(c *gin.Context, status int, code apperrors.ErrorCode, msg string) {
	c.JSON(status, httputil.Response{
		Error: &httputil.Error{Code: code, Message: msg},
	})
	c.Abort()
}
