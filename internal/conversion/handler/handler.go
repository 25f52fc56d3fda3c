package handler

import (
	"net/http"

	"pipeline_backend/internal/conversion/service"
	"pipeline_backend/internal/conversion/transport"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for deal conversions.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new conversion handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Validate reports whether a deal can be converted.
// GET /api/v1/deals/:id/conversion/validate
func (h *Handler) Validate(c *gin.Context) {
	tenantID, dealID, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.Validate(c.Request.Context(), tenantID, dealID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ContractDraft previews the contract a deal would produce.
// GET /api/v1/deals/:id/conversion/contract-draft
func (h *Handler) ContractDraft(c *gin.Context) {
	tenantID, dealID, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.PrepareDraft(c.Request.Context(), tenantID, dealID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ConvertToContract stores a contract for a won deal.
// POST /api/v1/deals/:id/conversion/contract
func (h *Handler) ConvertToContract(c *gin.Context) {
	tenantID, dealID, ok := scope(c)
	if !ok {
		return
	}
	var req transport.ConvertRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.ConvertToContract(c.Request.Context(), tenantID, dealID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// CreateProductSales books selected deal items as sales.
// POST /api/v1/deals/:id/conversion/product-sales
func (h *Handler) CreateProductSales(c *gin.Context) {
	tenantID, dealID, ok := scope(c)
	if !ok {
		return
	}
	var req transport.CreateSalesRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.CreateSalesFromItems(c.Request.Context(), tenantID, dealID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListContracts lists contracts created from the deal.
// GET /api/v1/deals/:id/contracts
func (h *Handler) ListContracts(c *gin.Context) {
	tenantID, dealID, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.ListLinkedContracts(c.Request.Context(), tenantID, dealID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return false
	}
	return true
}

func scope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid deal id", nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	tenantID, ok := httpkit.MustGetTenantID(c, identity)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return tenantID, dealID, true
}
