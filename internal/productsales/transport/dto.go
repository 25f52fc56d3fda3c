package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateSaleRequest struct {
	DealID      uuid.UUID        `json:"dealId" validate:"required"`
	ProductID   uuid.UUID        `json:"productId" validate:"required"`
	ProductName string           `json:"productName" validate:"required,max=200"`
	Quantity    int              `json:"quantity" validate:"required,min=1"`
	UnitPrice   decimal.Decimal  `json:"unitPrice" validate:"decimal_gte0"`
	Discount    *decimal.Decimal `json:"discount,omitempty" validate:"omitempty,decimal_gte0"`
	Tax         *decimal.Decimal `json:"tax,omitempty" validate:"omitempty,decimal_gte0"`
	CustomerID  uuid.UUID        `json:"customerId" validate:"required"`
	SaleDate    *time.Time       `json:"saleDate,omitempty"`
	AssignedTo  *uuid.UUID       `json:"assignedTo,omitempty"`
	Notes       string           `json:"notes" validate:"max=2000"`
}

type ListSalesRequest struct {
	Search     string `form:"search" validate:"max=100"`
	DealID     string `form:"dealId" validate:"omitempty,uuid"`
	CustomerID string `form:"customerId" validate:"omitempty,uuid"`
	ProductID  string `form:"productId" validate:"omitempty,uuid"`
	SaleFrom   string `form:"saleFrom" validate:"omitempty,datetime=2006-01-02"`
	SaleTo     string `form:"saleTo" validate:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=saleDate totalPrice createdAt"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}
