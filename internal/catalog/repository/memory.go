package repository

import (
	"context"
	"sort"
	"strings"

	"pipeline_backend/internal/shared/memstore"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepository keeps products in process memory.
type MemoryRepository struct {
	store *memstore.Store[Product]
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: memstore.New[Product](nil)}
}

func (r *MemoryRepository) CreateProduct(_ context.Context, p Product) (Product, error) {
	r.store.Put(p.ID, p)
	return p, nil
}

func (r *MemoryRepository) GetProductByID(_ context.Context, organizationID, id uuid.UUID) (Product, error) {
	p, ok := r.store.Get(id)
	if !ok || p.OrganizationID != organizationID {
		return Product{}, apperr.NotFound(productNotFoundMsg)
	}
	return p, nil
}

func (r *MemoryRepository) UpdateProduct(_ context.Context, p Product) (Product, error) {
	existing, ok := r.store.Get(p.ID)
	if !ok || existing.OrganizationID != p.OrganizationID {
		return Product{}, apperr.NotFound(productNotFoundMsg)
	}
	r.store.Replace(p.ID, p)
	return p, nil
}

func (r *MemoryRepository) DeleteProduct(_ context.Context, organizationID, id uuid.UUID) error {
	existing, ok := r.store.Get(id)
	if !ok || existing.OrganizationID != organizationID {
		return apperr.NotFound(productNotFoundMsg)
	}
	r.store.Delete(id)
	return nil
}

func (r *MemoryRepository) ListProducts(_ context.Context, params ListProductsParams) ([]Product, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []Product{}, 0, nil
	}
	needle := strings.ToLower(strings.TrimSpace(params.Search))
	matches := r.store.Filter(func(p Product) bool {
		if p.OrganizationID != params.OrganizationID {
			return false
		}
		if params.ActiveOnly && !p.Active {
			return false
		}
		return needle == "" || strings.Contains(strings.ToLower(p.Name+" "+p.SKU), needle)
	})

	asc := params.SortOrder == "asc"
	sort.SliceStable(matches, func(i, j int) bool {
		var less bool
		switch params.SortBy {
		case "name":
			less = matches[i].Name < matches[j].Name
		case "unitPrice":
			less = matches[i].UnitPrice.LessThan(matches[j].UnitPrice)
		default:
			less = matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
	return paging.Slice(matches, params.Offset, params.Limit), len(matches), nil
}

var _ Repository = (*MemoryRepository)(nil)
