package staff

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/middleware"
	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	staffService "github.com/healthbridge/partner-api/internal/service/staff"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
	"github.com/healthbridge/partner-api/pkg/metrics"
)

type Handler struct {
	service    *staffService.Service
	outboxRepo repository.OutboxRepository
	auth       *middleware.AuthMiddleware
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewHandler(service *staffService.Service, outboxRepo repository.OutboxRepository,
	auth *middleware.AuthMiddleware, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{service: service, outboxRepo: outboxRepo, auth: auth, metrics: m, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := r.Group("/staff",
		h.auth.Authenticate(),
		h.auth.RequireRoles(model.RoleAdmin, model.RoleHospitalManager),
	)
	{
		staff.POST("", h.Create)
		staff.GET("", h.List)
		staff.GET("/:id", h.Get)
		staff.PUT("/:id", h.Update)
		staff.DELETE("/:id", h.Deactivate)
	}
}

func (h *Handler) Create(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return
	}

	var req model.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	// The target hospital comes from the body, so the scope check
	// happens here rather than in route middleware.
	if !identity.HasRole(model.RoleAdmin) && !identity.ManagesHospital(req.HospitalID) {
		httputil.RespondWithError(c, apperrors.Forbidden())
		return
	}

	member, err := h.service.Create(c.Request.Context(), identity, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.StaffMembersCreated.WithLabelValues(member.Role).Inc()
	h.publishEvent(c, model.EventStaffCreated, member)
	httputil.RespondWithCreated(c, member)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid staff ID", "id"))
		return
	}

	member, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if forbidden := h.requireScope(c, member.HospitalID); forbidden {
		return
	}
	httputil.RespondWithSuccess(c, member)
}

func (h *Handler) List(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return
	}

	var filter model.StaffFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	// Managers only ever see their own hospital's roster.
	if !identity.HasRole(model.RoleAdmin) {
		if identity.HospitalID == nil {
			httputil.RespondWithError(c, apperrors.Forbidden())
			return
		}
		filter.HospitalID = *identity.HospitalID
	}

	members, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, members)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid staff ID", "id"))
		return
	}

	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return
	}

	member, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if forbidden := h.requireScope(c, member.HospitalID); forbidden {
		return
	}

	var req model.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), identity, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.publishEvent(c, model.EventStaffUpdated, updated)
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid staff ID", "id"))
		return
	}

	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return
	}

	member, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if forbidden := h.requireScope(c, member.HospitalID); forbidden {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), identity, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.publishEvent(c, model.EventStaffDeactivated, gin.H{"id": id})
	httputil.RespondWithSuccess(c, gin.H{"id": id, "is_active": false})
}

// requireScope rejects managers acting outside their own hospital.
// Returns true if a response has already been written.
func (h *Handler) requireScope(c *gin.Context, hospitalID uuid.UUID) bool {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthenticated(nil))
		return true
	}
	if identity.HasRole(model.RoleAdmin) || identity.ManagesHospital(hospitalID) {
		return false
	}
	httputil.RespondWithError(c, apperrors.Forbidden())
	return true
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
