package handler

import (
	"net/http"

	"pipeline_backend/internal/deals/service"
	"pipeline_backend/internal/deals/transport"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for deals, opportunities and deal items.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid deal id"
	msgInvalidItemID    = "invalid item id"
)

// New creates a new deals handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves deals with filters and pagination.
// GET /api/v1/deals
func (h *Handler) List(c *gin.Context) {
	var req transport.ListDealsRequest
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

// Stats returns the pipeline statistics.
// GET /api/v1/deals/stats
func (h *Handler) Stats(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), httpkit.TenantOrNil(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListOpportunities returns deals in the opportunity stages.
// GET /api/v1/deals/opportunities
func (h *Handler) ListOpportunities(c *gin.Context) {
	var req transport.ListOpportunitiesRequest
	if !h.bindQuery(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListOpportunities(c.Request.Context(), httpkit.TenantOrNil(identity), req.Page, req.PageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetOpportunity returns a deal that is currently an opportunity.
// GET /api/v1/deals/opportunities/:id
func (h *Handler) GetOpportunity(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.GetOpportunity(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create opens a deal.
// POST /api/v1/deals
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateDealRequest
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

// Get retrieves a deal by ID.
// GET /api/v1/deals/:id
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

// Proposal downloads the deal proposal.
// GET /api/v1/deals/:id/proposal
func (h *Handler) Proposal(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	doc, err := h.svc.Proposal(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="proposal-`+id.String()[:8]+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// Update patches descriptive deal fields.
// PATCH /api/v1/deals/:id
func (h *Handler) Update(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.UpdateDealRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a deal.
// DELETE /api/v1/deals/:id
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

// UpdateStage moves a deal through the pipeline.
// POST /api/v1/deals/:id/stage
func (h *Handler) UpdateStage(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.UpdateStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.UpdateStage(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel withdraws an open deal.
// POST /api/v1/deals/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.Cancel(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetValue sets the value of a deal without items.
// PUT /api/v1/deals/:id/value
func (h *Handler) SetValue(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.SetValueRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.SetValue(c.Request.Context(), tenantID, id, req.Value)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddItem adds a catalog product to the deal.
// POST /api/v1/deals/:id/items
func (h *Handler) AddItem(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	var req transport.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.AddItem(c.Request.Context(), tenantID, id, req.ProductID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// UpdateItem changes quantity, discount or tax of a line.
// PATCH /api/v1/deals/:id/items/:itemId
func (h *Handler) UpdateItem(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidItemID, nil)
		return
	}
	var req transport.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.UpdateItem(c.Request.Context(), tenantID, id, itemID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RemoveItem drops a line.
// DELETE /api/v1/deals/:id/items/:itemId
func (h *Handler) RemoveItem(c *gin.Context) {
	tenantID, id, ok := scope(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidItemID, nil)
		return
	}

	result, err := h.svc.RemoveItem(c.Request.Context(), tenantID, id, itemID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkUpdate patches many deals and reports per-id results.
// POST /api/v1/deals/bulk/update
func (h *Handler) BulkUpdate(c *gin.Context) {
	var req transport.BulkUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	result, err := h.svc.BulkUpdate(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkDelete deletes many deals and reports per-id results.
// POST /api/v1/deals/bulk/delete
func (h *Handler) BulkDelete(c *gin.Context) {
	var req transport.BulkDeleteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	result, err := h.svc.BulkDelete(c.Request.Context(), tenantID, req.IDs)
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
