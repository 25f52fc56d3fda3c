package handler

import (
	"net/http"

	"pipeline_backend/internal/leads/service"
	"pipeline_backend/internal/leads/transport"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead id"
)

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves leads with filters and pagination.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.List(c.Request.Context(), httpkit.TenantOrNil(identity), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Summary returns lead counts by status and stage.
// GET /api/v1/leads/summary
func (h *Handler) Summary(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Summary(c.Request.Context(), httpkit.TenantOrNil(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create captures a new lead.
// POST /api/v1/leads
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Get retrieves a lead by ID.
// GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update patches a lead.
// PATCH /api/v1/leads/:id
func (h *Handler) Update(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a lead.
// DELETE /api/v1/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), tenantID, id)) {
		return
	}
	httpkit.NoContent(c)
}

// TransitionStatus changes the lead status.
// POST /api/v1/leads/:id/status
func (h *Handler) TransitionStatus(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.TransitionStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.TransitionStatus(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AdvanceStage moves the lead forward in the journey.
// POST /api/v1/leads/:id/stage
func (h *Handler) AdvanceStage(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.AdvanceStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.AdvanceStage(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecalculateScore recomputes the score and returns its breakdown.
// POST /api/v1/leads/:id/score/recalculate
func (h *Handler) RecalculateScore(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.RecalculateScore(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetScore applies a manual score.
// PUT /api/v1/leads/:id/score
func (h *Handler) SetScore(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.SetScoreRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.SetScore(c.Request.Context(), tenantID, id, *req.Score)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Readiness lists conversion blockers.
// GET /api/v1/leads/:id/readiness
func (h *Handler) Readiness(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.Readiness(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Assign sets the lead owner, automatically when no assignee is given.
// POST /api/v1/leads/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.AssignLeadRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Assign(c.Request.Context(), tenantID, id, req.AssigneeID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ScheduleFollowUp sets the next follow-up.
// POST /api/v1/leads/:id/follow-up
func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.ScheduleFollowUpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.ScheduleFollowUp(c.Request.Context(), tenantID, id, req.ScheduledAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Convert turns a qualified lead into a customer.
// POST /api/v1/leads/:id/convert
func (h *Handler) Convert(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.ConvertLeadRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.ConvertLead(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func tenant(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	return httpkit.MustGetTenantID(c, identity)
}

func scope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	tenantID, ok := tenant(c)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return tenantID, id, true
}
