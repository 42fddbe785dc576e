package hospital

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/middleware"
	"github.com/healthbridge/partner-api/internal/model"
	"github.com/healthbridge/partner-api/internal/repository"
	hospitalService "github.com/healthbridge/partner-api/internal/service/hospital"
	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
	"github.com/healthbridge/partner-api/pkg/metrics"
)

type Handler struct {
	service    *hospitalService.Service
	outboxRepo repository.OutboxRepository
	auth       *middleware.AuthMiddleware
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewHandler(service *hospitalService.Service, outboxRepo repository.OutboxRepository,
	auth *middleware.AuthMiddleware, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{service: service, outboxRepo: outboxRepo, auth: auth, metrics: m, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	hospitals := r.Group("/hospitals")
	{
		// Public self-service registration.
		hospitals.POST("/register", h.Register)

		hospitals.GET("", h.auth.Authenticate(), h.List)
		hospitals.GET("/:id", h.auth.Authenticate(), h.Get)
		hospitals.PUT("/:id",
			h.auth.Authenticate(),
			h.auth.RequireRoles(model.RoleAdmin, model.RoleHospitalManager),
			h.auth.RequireHospitalScope("id"),
			h.Update,
		)
		hospitals.POST("/:id/documents",
			h.auth.Authenticate(),
			h.auth.RequireRoles(model.RoleAdmin, model.RoleHospitalManager),
			h.auth.RequireHospitalScope("id"),
			h.AddDocument,
		)
		hospitals.GET("/:id/documents",
			h.auth.Authenticate(),
			h.auth.RequireRoles(model.RoleAdmin, model.RoleHospitalManager),
			h.auth.RequireHospitalScope("id"),
			h.ListDocuments,
		)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	hospital, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.HospitalRegistrations.Inc()
	h.publishEvent(c, model.EventHospitalRegistered, hospital)
	httputil.RespondWithCreated(c, hospital)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID", "id"))
		return
	}

	hospital, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, hospital)
}

func (h *Handler) List(c *gin.Context) {
	var filter model.HospitalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	hospitals, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, hospitals)
}

func (h *Handler) Update(c *gin.Context) {
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

	var req model.UpdateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	hospital, err := h.service.Update(c.Request.Context(), identity, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.publishEvent(c, model.EventHospitalUpdated, hospital)
	httputil.RespondWithSuccess(c, hospital)
}

type addDocumentRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required,url"`
	Type string `json:"type" binding:"required"`
}

func (h *Handler) AddDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID", "id"))
		return
	}

	var req addDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	doc := &model.HospitalDocument{
		HospitalID: id,
		Name:       req.Name,
		URL:        req.URL,
		Type:       req.Type,
	}
	if err := h.service.AddDocument(c.Request.Context(), doc); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doc)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID", "id"))
		return
	}

	docs, err := h.service.ListDocuments(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, docs)
}

// publishEvent records an outbox event; failures are logged, never
// surfaced, since the request itself already succeeded.
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
