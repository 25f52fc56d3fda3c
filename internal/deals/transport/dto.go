package transport

import (
	"time"

	"pipeline_backend/internal/deals/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateDealRequest struct {
	Title             string           `json:"title" validate:"required,max=200"`
	Description       string           `json:"description" validate:"max=5000"`
	Value             *decimal.Decimal `json:"value,omitempty" validate:"omitempty,decimal_gte0"`
	Stage             string           `json:"stage" validate:"omitempty,oneof=lead qualified proposal negotiation"`
	CustomerID        uuid.UUID        `json:"customerId" validate:"required"`
	AssignedTo        *uuid.UUID       `json:"assignedTo,omitempty"`
	Probability       *int             `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time       `json:"expectedCloseDate,omitempty"`
	Source            string           `json:"source" validate:"max=100"`
	Campaign          string           `json:"campaign" validate:"max=100"`
	Tags              []string         `json:"tags" validate:"max=20,dive,max=50"`
	LeadID            *uuid.UUID       `json:"leadId,omitempty"`
}

type UpdateDealRequest struct {
	Title             *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	CustomerID        *uuid.UUID `json:"customerId,omitempty"`
	AssignedTo        *uuid.UUID `json:"assignedTo,omitempty"`
	ClearAssignee     bool       `json:"clearAssignee"`
	Probability       *int       `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Source            *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	Campaign          *string    `json:"campaign,omitempty" validate:"omitempty,max=100"`
	Tags              *[]string  `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
}

type ListDealsRequest struct {
	Search            string `form:"search" validate:"max=100"`
	Stage             string `form:"stage" validate:"omitempty,max=200"`
	Status            string `form:"status" validate:"omitempty,max=200"`
	CustomerID        string `form:"customerId" validate:"omitempty,uuid"`
	AssignedTo        string `form:"assignedTo" validate:"omitempty,uuid"`
	CreatedFrom       string `form:"createdFrom" validate:"omitempty,max=50"`
	CreatedTo         string `form:"createdTo" validate:"omitempty,max=50"`
	ExpectedCloseFrom string `form:"expectedCloseFrom" validate:"omitempty,max=50"`
	ExpectedCloseTo   string `form:"expectedCloseTo" validate:"omitempty,max=50"`
	Page              int    `form:"page" validate:"omitempty,min=1"`
	PageSize          int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy            string `form:"sortBy" validate:"omitempty,oneof=createdAt value title probability"`
	SortOrder         string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type UpdateStageRequest struct {
	Stage           string     `json:"stage" validate:"required,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	ActualCloseDate *time.Time `json:"actualCloseDate,omitempty"`
}

type SetValueRequest struct {
	Value decimal.Decimal `json:"value" validate:"decimal_gte0"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// UpdateItemRequest changes one line. Quantity, discount and tax are
// validated by the calculator so a bad value surfaces as a domain error.
type UpdateItemRequest struct {
	Quantity *int             `json:"quantity,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Tax      *decimal.Decimal `json:"tax,omitempty"`
}

type BulkUpdateRequest struct {
	IDs   []uuid.UUID       `json:"ids" validate:"required,min=1,max=100"`
	Stage *string           `json:"stage,omitempty" validate:"omitempty,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	Patch UpdateDealRequest `json:"patch"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
}

// BulkFailure reports why one id of a bulk request failed.
type BulkFailure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
	Code  string    `json:"code"`
}

// BulkResult lists successes and failures in request order.
type BulkResult struct {
	Succeeded []uuid.UUID   `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// ItemMutationResponse returns the deal after an item change plus any
// non-fatal calculator warnings.
type ItemMutationResponse struct {
	Deal     domain.Deal      `json:"deal"`
	Warnings []domain.Warning `json:"warnings"`
}

type ListOpportunitiesRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}
