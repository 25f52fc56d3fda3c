package repository

import (
	"context"
	"sort"
	"strings"

	"pipeline_backend/internal/deals/domain"
	"pipeline_backend/internal/shared/memstore"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps deals in process memory.
type MemoryRepository struct {
	store *memstore.Store[domain.Deal]
}

// NewMemory creates an empty in-memory deal repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: memstore.New(cloneDeal)}
}

func cloneDeal(d domain.Deal) domain.Deal {
	d.Tags = append([]string{}, d.Tags...)
	d.Items = append([]domain.SaleItem{}, d.Items...)
	if d.AssignedTo != nil {
		v := *d.AssignedTo
		d.AssignedTo = &v
	}
	if d.LeadID != nil {
		v := *d.LeadID
		d.LeadID = &v
	}
	if d.ExpectedCloseDate != nil {
		v := *d.ExpectedCloseDate
		d.ExpectedCloseDate = &v
	}
	if d.ActualCloseDate != nil {
		v := *d.ActualCloseDate
		d.ActualCloseDate = &v
	}
	return d
}

func (r *MemoryRepository) Create(_ context.Context, deal domain.Deal) (domain.Deal, error) {
	r.store.Put(deal.ID, deal)
	return cloneDeal(deal), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, organizationID, id uuid.UUID) (domain.Deal, error) {
	deal, ok := r.store.Get(id)
	if !ok || deal.OrganizationID != organizationID {
		return domain.Deal{}, apperr.NotFound(dealNotFoundMsg)
	}
	return deal, nil
}

func (r *MemoryRepository) Update(_ context.Context, deal domain.Deal) (domain.Deal, error) {
	existing, ok := r.store.Get(deal.ID)
	if !ok || existing.OrganizationID != deal.OrganizationID {
		return domain.Deal{}, apperr.NotFound(dealNotFoundMsg)
	}
	r.store.Replace(deal.ID, deal)
	return cloneDeal(deal), nil
}

func (r *MemoryRepository) Delete(_ context.Context, organizationID, id uuid.UUID) error {
	existing, ok := r.store.Get(id)
	if !ok || existing.OrganizationID != organizationID {
		return apperr.NotFound(dealNotFoundMsg)
	}
	r.store.Delete(id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, params ListParams) ([]domain.Deal, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.Deal{}, 0, nil
	}
	matches := r.store.Filter(func(d domain.Deal) bool {
		return d.OrganizationID == params.OrganizationID && matchesFilters(d, params)
	})
	sortDeals(matches, params.SortBy, params.SortOrder)
	return paging.Slice(matches, params.Offset, params.Limit), len(matches), nil
}

func (r *MemoryRepository) ListForStats(_ context.Context, organizationID uuid.UUID) ([]domain.Deal, error) {
	deals := r.store.Filter(func(d domain.Deal) bool { return d.OrganizationID == organizationID })
	for i := range deals {
		deals[i].Items = nil
	}
	return deals, nil
}

func (r *MemoryRepository) ExistsForCustomer(_ context.Context, organizationID, customerID uuid.UUID) (bool, error) {
	found := r.store.Filter(func(d domain.Deal) bool {
		return d.OrganizationID == organizationID && d.CustomerID == customerID
	})
	return len(found) > 0, nil
}

func matchesFilters(d domain.Deal, p ListParams) bool {
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		haystack := strings.ToLower(d.Title + " " + d.Description + " " + strings.Join(d.Tags, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if len(p.Stages) > 0 && !containsStage(p.Stages, d.Stage) {
		return false
	}
	if len(p.Statuses) > 0 && !containsStatus(p.Statuses, d.Status) {
		return false
	}
	if p.CustomerID != nil && d.CustomerID != *p.CustomerID {
		return false
	}
	if p.AssignedTo != nil && (d.AssignedTo == nil || *d.AssignedTo != *p.AssignedTo) {
		return false
	}
	if p.CreatedFrom != nil && d.CreatedAt.Before(*p.CreatedFrom) {
		return false
	}
	if p.CreatedTo != nil && d.CreatedAt.After(*p.CreatedTo) {
		return false
	}
	if p.ExpectedCloseFrom != nil && (d.ExpectedCloseDate == nil || d.ExpectedCloseDate.Before(*p.ExpectedCloseFrom)) {
		return false
	}
	if p.ExpectedCloseTo != nil && (d.ExpectedCloseDate == nil || d.ExpectedCloseDate.After(*p.ExpectedCloseTo)) {
		return false
	}
	return true
}

func containsStage(values []domain.Stage, v domain.Stage) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsStatus(values []domain.Status, v domain.Status) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func sortDeals(deals []domain.Deal, sortBy, sortOrder string) {
	asc := sortOrder == "asc"
	less := func(i, j int) bool { return deals[i].CreatedAt.After(deals[j].CreatedAt) }
	switch sortBy {
	case "value":
		less = func(i, j int) bool {
			if asc {
				return deals[i].Value.LessThan(deals[j].Value)
			}
			return deals[i].Value.GreaterThan(deals[j].Value)
		}
	case "title":
		less = func(i, j int) bool {
			if asc {
				return deals[i].Title < deals[j].Title
			}
			return deals[i].Title > deals[j].Title
		}
	case "probability":
		less = func(i, j int) bool {
			if asc {
				return deals[i].Probability < deals[j].Probability
			}
			return deals[i].Probability > deals[j].Probability
		}
	case "createdAt":
		if asc {
			less = func(i, j int) bool { return deals[i].CreatedAt.Before(deals[j].CreatedAt) }
		}
	}
	sort.SliceStable(deals, less)
}
