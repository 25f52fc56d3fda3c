package handler

import (
	"net/http"

	"pipeline_backend/internal/contracts/service"
	"pipeline_backend/internal/contracts/transport"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for contracts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid contract id"
)

// New creates a new contracts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves contracts with filters and pagination.
// GET /api/v1/contracts
func (h *Handler) List(c *gin.Context) {
	var req transport.ListContractsRequest
	if !h.bindQuery(c, &req) {
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

// Create stores a draft contract.
// POST /api/v1/contracts
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateContractRequest
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

// Get retrieves a contract by ID.
// GET /api/v1/contracts/:id
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

// Update changes contract terms.
// PATCH /api/v1/contracts/:id
func (h *Handler) Update(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.UpdateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a contract.
// DELETE /api/v1/contracts/:id
func (h *Handler) Delete(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Submit sends a contract for approval.
// POST /api/v1/contracts/:id/submit
func (h *Handler) Submit(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecordApproval appends an approval decision.
// POST /api/v1/contracts/:id/approvals
func (h *Handler) RecordApproval(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.ApprovalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.RecordApproval(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Terminate ends an active contract.
// POST /api/v1/contracts/:id/terminate
func (h *Handler) Terminate(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.Terminate(c.Request.Context(), tenantID, id)
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

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
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
