package admin

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/middleware"
	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	hospitalService "github.com/healthbridge/partner-api/internal/service/hospital"
	identityService "github.com/healthbridge/partner-api/internal/service/identity"
	"github.com/healthbridge/partner-api/internal/service/provisioning"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
	"github.com/healthbridge/partner-api/pkg/metrics"
)

// Handler exposes the admin surface: hospital verification decisions
// and platform user administration.
type Handler struct {
	provisioner *provisioning.Service
	hospitals   *hospitalService.Service
	identity    *identityService.Service
	outboxRepo  repository.OutboxRepository
	auth        *middleware.AuthMiddleware
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewHandler(provisioner *provisioning.Service, hospitals *hospitalService.Service,
	identity *identityService.Service, outboxRepo repository.OutboxRepository,
	auth *middleware.AuthMiddleware, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		provisioner: provisioner,
		hospitals:   hospitals,
		identity:    identity,
		outboxRepo:  outboxRepo,
		auth:        auth,
		metrics:     m,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin",
		h.auth.Authenticate(),
		h.auth.RequireRoles(model.RoleAdmin),
	)
	{
		admin.GET("/hospitals", h.ListHospitals)
		admin.PUT("/hospitals/:id/verify", h.VerifyHospital)
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id/deactivate", h.DeactivateUser)
	}
}

type verifyHospitalRequest struct {
	Status          string `json:"status" binding:"required"`
	Notes           string `json:"verification_notes"`
	RejectionReason string `json:"rejection_reason"`
	Manager         *struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		Phone string `json:"phone"`
	} `json:"manager"`
}

// VerifyHospital applies an admin verification decision and, on
// approval, provisions the manager account and notification.
func (h *Handler) VerifyHospital(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID", "id"))
		return
	}

	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return
	}

	var req verifyHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	provReq := &provisioning.Request{
		HospitalID:      id,
		Status:          req.Status,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		DecidedBy:       identity.ID,
	}
	if req.Manager != nil {
		provReq.Manager = &provisioning.ManagerDetails{
			Name:  req.Manager.Name,
			Email: req.Manager.Email,
			Phone: req.Manager.Phone,
		}
	}

	result, err := h.provisioner.Run(c.Request.Context(), provReq)
	if result == nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.VerificationDecisions.WithLabelValues(req.Status).Inc()
	h.publishEvent(c, model.EventHospitalVerified, result.Hospital)

	if result.Partial {
		h.metrics.ProvisioningPartials.Inc()
		httputil.RespondWithPartial(c, result, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) ListHospitals(c *gin.Context) {
	var filter model.HospitalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	hospitals, err := h.hospitals.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, hospitals)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.identity.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	user, err := h.identity.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) DeactivateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid user ID", "id"))
		return
	}

	if err := h.identity.Deactivate(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "is_active": false})
}

func (h *Handler) publishEvent(c *gin.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		return
	}
	if err := h.outboxRepo.Create(c.Request.Context(), &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}); err != nil {
		h.logger.Error().Err(err).Str("event", eventType).Msg("failed to create outbox event")
	}
}
