package adapters

import (
	"context"
	"fmt"

	catalogsvc "pipeline_backend/internal/catalog/service"
	dealdomain "pipeline_backend/internal/deals/domain"
	dealsvc "pipeline_backend/internal/deals/service"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// CatalogProductReader adapts the catalog for the deal product-line calculator.
type CatalogProductReader struct {
	svc *catalogsvc.Service
}

// NewCatalogProductReader creates a new catalog reader adapter.
func NewCatalogProductReader(svc *catalogsvc.Service) *CatalogProductReader {
	return &CatalogProductReader{svc: svc}
}

// GetProduct returns the product as a deal line source. Inactive products
// cannot be added to deals.
func (a *CatalogProductReader) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (dealdomain.Product, error) {
	p, err := a.svc.GetProductByID(ctx, tenantID, productID)
	if err != nil {
		return dealdomain.Product{}, err
	}
	if !p.Active {
		return dealdomain.Product{}, apperr.Validation(fmt.Sprintf("product %s is inactive", p.Name)).
			WithDetails(map[string]string{"productId": p.ID.String()})
	}
	return dealdomain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
	}, nil
}

// Compile-time check that CatalogProductReader implements dealsvc.ProductReader.
var _ dealsvc.ProductReader = (*CatalogProductReader)(nil)
