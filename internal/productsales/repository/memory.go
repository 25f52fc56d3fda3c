package repository

import (
	"context"
	"sort"
	"strings"

	"pipeline_backend/internal/productsales/domain"
	"pipeline_backend/internal/shared/memstore"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps the sales ledger in process memory.
type MemoryRepository struct {
	store *memstore.Store[domain.ProductSale]
}

// NewMemory creates an empty in-memory sales ledger.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: memstore.New(cloneSale)}
}

func cloneSale(s domain.ProductSale) domain.ProductSale {
	if s.AssignedTo != nil {
		v := *s.AssignedTo
		s.AssignedTo = &v
	}
	return s
}

func (r *MemoryRepository) Create(_ context.Context, s domain.ProductSale) (domain.ProductSale, error) {
	r.store.Put(s.ID, s)
	return cloneSale(s), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, organizationID, id uuid.UUID) (domain.ProductSale, error) {
	s, ok := r.store.Get(id)
	if !ok || s.OrganizationID != organizationID {
		return domain.ProductSale{}, apperr.NotFound(saleNotFoundMsg)
	}
	return s, nil
}

func (r *MemoryRepository) Delete(_ context.Context, organizationID, id uuid.UUID) error {
	existing, ok := r.store.Get(id)
	if !ok || existing.OrganizationID != organizationID {
		return apperr.NotFound(saleNotFoundMsg)
	}
	r.store.Delete(id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, params ListParams) ([]domain.ProductSale, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.ProductSale{}, 0, nil
	}
	matches := r.store.Filter(func(s domain.ProductSale) bool {
		if s.OrganizationID != params.OrganizationID {
			return false
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(s.ProductName+" "+s.Notes), strings.ToLower(params.Search)) {
			return false
		}
		if params.DealID != nil && s.DealID != *params.DealID {
			return false
		}
		if params.CustomerID != nil && s.CustomerID != *params.CustomerID {
			return false
		}
		if params.ProductID != nil && s.ProductID != *params.ProductID {
			return false
		}
		if params.SaleFrom != nil && s.SaleDate.Before(*params.SaleFrom) {
			return false
		}
		if params.SaleTo != nil && s.SaleDate.After(*params.SaleTo) {
			return false
		}
		return true
	})

	asc := params.SortOrder == "asc"
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch params.SortBy {
		case "totalPrice":
			if asc {
				return a.TotalPrice.LessThan(b.TotalPrice)
			}
			return a.TotalPrice.GreaterThan(b.TotalPrice)
		case "createdAt":
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		default:
			if asc {
				return a.SaleDate.Before(b.SaleDate)
			}
			return a.SaleDate.After(b.SaleDate)
		}
	})
	return paging.Slice(matches, params.Offset, params.Limit), len(matches), nil
}
