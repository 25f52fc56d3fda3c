package transport

import "github.com/shopspring/decimal"

// Products

type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"max=100"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=1000"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"decimal_gte0"`
	Active      *bool           `json:"active,omitempty"`
}

type UpdateProductRequest struct {
	SKU         *string          `json:"sku,omitempty" validate:"omitempty,max=100"`
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty" validate:"omitempty,decimal_gte0"`
	Active      *bool            `json:"active,omitempty"`
}

type ListProductsRequest struct {
	Search     string `form:"search" validate:"max=100"`
	ActiveOnly bool   `form:"activeOnly"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=name unitPrice createdAt"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}
