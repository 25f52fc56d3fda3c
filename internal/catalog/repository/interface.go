package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog product.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organizationId"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ListProductsParams defines filters for listing products.
type ListProductsParams struct {
	OrganizationID uuid.UUID
	Search         string
	ActiveOnly     bool
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

// Repository is the persistence port of the catalog module.
type Repository interface {
	CreateProduct(ctx context.Context, product Product) (Product, error)
	GetProductByID(ctx context.Context, organizationID, id uuid.UUID) (Product, error)
	UpdateProduct(ctx context.Context, product Product) (Product, error)
	DeleteProduct(ctx context.Context, organizationID, id uuid.UUID) error
	ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error)
}

const productNotFoundMsg = "product not found"
