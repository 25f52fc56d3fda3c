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

// MemoryRepository keeps customers in process memory.
type MemoryRepository struct {
	store *memstore.Store[Customer]
}

// NewMemory creates an empty in-memory customer repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: memstore.New[Customer](nil)}
}

func (r *MemoryRepository) Create(_ context.Context, c Customer) (Customer, error) {
	r.store.Put(c.ID, c)
	return c, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, organizationID, id uuid.UUID) (Customer, error) {
	c, ok := r.store.Get(id)
	if !ok || c.OrganizationID != organizationID {
		return Customer{}, apperr.NotFound(customerNotFoundMsg)
	}
	return c, nil
}

func (r *MemoryRepository) Update(_ context.Context, c Customer) (Customer, error) {
	existing, ok := r.store.Get(c.ID)
	if !ok || existing.OrganizationID != c.OrganizationID {
		return Customer{}, apperr.NotFound(customerNotFoundMsg)
	}
	r.store.Replace(c.ID, c)
	return c, nil
}

func (r *MemoryRepository) Delete(_ context.Context, organizationID, id uuid.UUID) error {
	existing, ok := r.store.Get(id)
	if !ok || existing.OrganizationID != organizationID {
		return apperr.NotFound(customerNotFoundMsg)
	}
	r.store.Delete(id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, p ListParams) ([]Customer, int, error) {
	if p.OrganizationID == uuid.Nil {
		return []Customer{}, 0, nil
	}
	needle := strings.ToLower(strings.TrimSpace(p.Search))
	matches := r.store.Filter(func(c Customer) bool {
		if c.OrganizationID != p.OrganizationID {
			return false
		}
		if p.Industry != "" && !strings.EqualFold(c.Industry, p.Industry) {
			return false
		}
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(c.Name+" "+c.Email+" "+c.Phone), needle)
	})

	asc := p.SortOrder == "asc"
	sort.SliceStable(matches, func(i, j int) bool {
		if p.SortBy == "name" {
			if asc {
				return matches[i].Name < matches[j].Name
			}
			return matches[i].Name > matches[j].Name
		}
		if asc {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return paging.Slice(matches, p.Offset, p.Limit), len(matches), nil
}

func (r *MemoryRepository) Exists(_ context.Context, organizationID, id uuid.UUID) (bool, error) {
	c, ok := r.store.Get(id)
	return ok && c.OrganizationID == organizationID, nil
}

var _ Repository = (*MemoryRepository)(nil)
