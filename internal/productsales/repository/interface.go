package repository

import (
	"context"
	"time"

	"pipeline_backend/internal/productsales/domain"

	"github.com/google/uuid"
)

// ListParams defines filters for listing product sales.
type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	DealID         *uuid.UUID
	CustomerID     *uuid.UUID
	ProductID      *uuid.UUID
	SaleFrom       *time.Time
	SaleTo         *time.Time
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

// Repository is the persistence port of the sales ledger. Entries are never
// updated in place.
type Repository interface {
	Create(ctx context.Context, sale domain.ProductSale) (domain.ProductSale, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.ProductSale, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]domain.ProductSale, int, error)
}

const saleNotFoundMsg = "product sale not found"
