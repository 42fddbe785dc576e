package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/healthbridge/partner-api/internal/middleware"
	"github.com/healthbridge/partner-api/internal/model"
	authService "github.com/healthbridge/partner-api/internal/service/auth"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
	"github.com/healthbridge/partner-api/pkg/metrics"
)

type Handler struct {
	svc     *authService.Service
	auth    *middleware.AuthMiddleware
	metrics *metrics.Metrics
}

func NewHandler(svc *authService.Service, auth *middleware.AuthMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, auth: auth, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/change-password", h.auth.Authenticate(), h.ChangePassword)
	}

	r.POST("/admin/login", h.AdminLogin)
}

// Register is public patient self-registration. Whatever the caller
// sends, the created identity is a patient.
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.AuthenticationFailures.Inc()
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	tokens, err := h.svc.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.AuthenticationFailures.Inc()
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "password changed"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "if the email exists, a reset link was sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "password reset"})
}
