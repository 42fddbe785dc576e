package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/pkg/auth"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	claims map[string]*auth.Claims
	errs   map[string]error
}

func (v *fakeValidator) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if err, ok := v.errs[token]; ok {
		return nil, err
	}
	if claims, ok := v.claims[token]; ok {
		return claims, nil
	}
	return nil, apperrors.Unauthenticated(auth.ErrTokenInvalid)
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
	gets  int
}

func (r *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.gets++
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, _ *model.User) error      { return nil }
func (r *fakeUserRepo) Deactivate(_ context.Context, _ uuid.UUID) error    { return nil }
func (r *fakeUserRepo) List(_ context.Context, _ string) ([]*model.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) UpdatePassword(_ context.Context, _ uuid.UUID, _ string, _ bool) error {
	return nil
}

type authFixture struct {
	mw       *AuthMiddleware
	repo     *fakeUserRepo
	adminTok string
	mgrTok   string
	mgr      *model.User
	hospital uuid.UUID
}

func newAuthFixture() *authFixture {
	hospitalID := uuid.New()
	admin := &model.User{Base: model.Base{ID: uuid.New()}, Email: "root@example.com", Role: model.RoleAdmin, IsActive: true}
	manager := &model.User{Base: model.Base{ID: uuid.New()}, Email: "mgr@example.com", Role: model.RoleHospitalManager, HospitalID: &hospitalID, IsActive: true}

	repo := &fakeUserRepo{users: map[uuid.UUID]*model.User{
		admin.ID:   admin,
		manager.ID: manager,
	}}
	validator := &fakeValidator{
		claims: map[string]*auth.Claims{
			"admin-token":   {UserID: admin.ID, Role: admin.Role},
			"manager-token": {UserID: manager.ID, Role: manager.Role, HospitalID: &hospitalID},
		},
		errs: map[string]error{
			"expired-token": apperrors.TokenExpired(auth.ErrTokenExpired),
		},
	}

	return &authFixture{
		mw:       NewAuthMiddleware(validator, repo),
		repo:     repo,
		adminTok: "admin-token",
		mgrTok:   "manager-token",
		mgr:      manager,
		hospital: hospitalID,
	}
}

func perform(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *httputil.Error {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestAuthenticateRejectsMissingAndMalformedHeaders(t *testing.T) {
	fx := newAuthFixture()
	router := gin.New()
	router.GET("/ping", fx.mw.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrUnauthenticated, decodeError(t, w).Code)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateDistinguishesExpiredTokens(t *testing.T) {
	fx := newAuthFixture()
	router := gin.New()
	router.GET("/ping", fx.mw.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/ping", "expired-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrTokenExpired, decodeError(t, w).Code)

	w = perform(router, http.MethodGet, "/ping", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrUnauthenticated, decodeError(t, w).Code)
}

func TestAuthenticateRejectsDeactivatedIdentity(t *testing.T) {
	fx := newAuthFixture()
	fx.mgr.IsActive = false

	router := gin.New()
	router.GET("/ping", fx.mw.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/ping", fx.mgrTok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateCachesIdentityLookups(t *testing.T) {
	fx := newAuthFixture()
	router := gin.New()
	router.GET("/ping", fx.mw.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := perform(router, http.MethodGet, "/ping", fx.adminTok)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, fx.repo.gets)
}

func TestRequireRolesIsCaseInsensitive(t *testing.T) {
	fx := newAuthFixture()
	router := gin.New()
	router.GET("/admin-only", fx.mw.Authenticate(), fx.mw.RequireRoles("ADMIN"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/admin-only", fx.adminTok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/admin-only", fx.mgrTok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.ErrForbidden, decodeError(t, w).Code)
}

func TestRequireHospitalScope(t *testing.T) {
	fx := newAuthFixture()
	router := gin.New()
	router.GET("/hospitals/:id",
		fx.mw.Authenticate(),
		fx.mw.RequireRoles(model.RoleAdmin, model.RoleHospitalManager),
		fx.mw.RequireHospitalScope("id"),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	t.Run("admin bypasses scope", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/hospitals/"+uuid.NewString(), fx.adminTok)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("manager reaches own hospital", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/hospitals/"+fx.hospital.String(), fx.mgrTok)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("denials are indistinguishable", func(t *testing.T) {
		other := perform(router, http.MethodGet, "/hospitals/"+uuid.NewString(), fx.mgrTok)
		badID := perform(router, http.MethodGet, "/hospitals/not-a-uuid", fx.mgrTok)

		assert.Equal(t, http.StatusForbidden, other.Code)
		assert.Equal(t, http.StatusForbidden, badID.Code)
		assert.Equal(t, other.Body.String(), badID.Body.String())
	})
}
