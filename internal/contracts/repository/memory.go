package repository

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"pipeline_backend/internal/contracts/domain"
	"pipeline_backend/internal/shared/memstore"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps contracts in process memory.
type MemoryRepository struct {
	store *memstore.Store[domain.Contract]
	seq   atomic.Int64
}

// NewMemory creates an empty in-memory contract repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: memstore.New(cloneContract)}
}

func cloneContract(c domain.Contract) domain.Contract {
	c.ApprovalHistory = append([]domain.ApprovalRecord{}, c.ApprovalHistory...)
	if c.AssignedTo != nil {
		v := *c.AssignedTo
		c.AssignedTo = &v
	}
	if c.DealID != nil {
		v := *c.DealID
		c.DealID = &v
	}
	return c
}

func (r *MemoryRepository) Create(_ context.Context, c domain.Contract) (domain.Contract, error) {
	c.ContractNumber = domain.FormatNumber(r.seq.Add(1))
	r.store.Put(c.ID, c)
	return cloneContract(c), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, organizationID, id uuid.UUID) (domain.Contract, error) {
	c, ok := r.store.Get(id)
	if !ok || c.OrganizationID != organizationID {
		return domain.Contract{}, apperr.NotFound(contractNotFoundMsg)
	}
	return c, nil
}

func (r *MemoryRepository) Update(_ context.Context, c domain.Contract) (domain.Contract, error) {
	existing, ok := r.store.Get(c.ID)
	if !ok || existing.OrganizationID != c.OrganizationID {
		return domain.Contract{}, apperr.NotFound(contractNotFoundMsg)
	}
	c.ContractNumber = existing.ContractNumber
	c.ApprovalHistory = existing.ApprovalHistory
	r.store.Replace(c.ID, c)
	return cloneContract(c), nil
}

func (r *MemoryRepository) AppendApproval(_ context.Context, c domain.Contract, record domain.ApprovalRecord) (domain.Contract, error) {
	existing, ok := r.store.Get(c.ID)
	if !ok || existing.OrganizationID != c.OrganizationID {
		return domain.Contract{}, apperr.NotFound(contractNotFoundMsg)
	}
	c.ContractNumber = existing.ContractNumber
	c.ApprovalHistory = append(existing.ApprovalHistory, record)
	r.store.Replace(c.ID, c)
	return cloneContract(c), nil
}

func (r *MemoryRepository) Delete(_ context.Context, organizationID, id uuid.UUID) error {
	existing, ok := r.store.Get(id)
	if !ok || existing.OrganizationID != organizationID {
		return apperr.NotFound(contractNotFoundMsg)
	}
	r.store.Delete(id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, params ListParams) ([]domain.Contract, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.Contract{}, 0, nil
	}
	matches := r.store.Filter(func(c domain.Contract) bool {
		return c.OrganizationID == params.OrganizationID && matchesFilters(c, params)
	})
	sortContracts(matches, params.SortBy, params.SortOrder)
	return paging.Slice(matches, params.Offset, params.Limit), len(matches), nil
}

func matchesFilters(c domain.Contract, p ListParams) bool {
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		haystack := strings.ToLower(strings.Join([]string{c.ContractNumber, c.Title, c.CustomerName, c.DealTitle}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if len(p.Statuses) > 0 {
		found := false
		for _, s := range p.Statuses {
			if s == c.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.Type != "" && c.Type != p.Type {
		return false
	}
	if p.CustomerID != nil && c.CustomerID != *p.CustomerID {
		return false
	}
	if p.DealID != nil && (c.DealID == nil || *c.DealID != *p.DealID) {
		return false
	}
	if p.StartFrom != nil && c.StartDate.Before(*p.StartFrom) {
		return false
	}
	if p.StartTo != nil && c.StartDate.After(*p.StartTo) {
		return false
	}
	return true
}

func sortContracts(contracts []domain.Contract, sortBy, sortOrder string) {
	asc := sortOrder == "asc"
	less := func(i, j int) bool { return contracts[i].CreatedAt.After(contracts[j].CreatedAt) }
	switch sortBy {
	case "contractNumber":
		less = func(i, j int) bool {
			if asc {
				return contracts[i].ContractNumber < contracts[j].ContractNumber
			}
			return contracts[i].ContractNumber > contracts[j].ContractNumber
		}
	case "value":
		less = func(i, j int) bool {
			if asc {
				return contracts[i].Value.LessThan(contracts[j].Value)
			}
			return contracts[i].Value.GreaterThan(contracts[j].Value)
		}
	case "startDate":
		less = func(i, j int) bool {
			if asc {
				return contracts[i].StartDate.Before(contracts[j].StartDate)
			}
			return contracts[i].StartDate.After(contracts[j].StartDate)
		}
	default:
		if asc {
			less = func(i, j int) bool { return contracts[i].CreatedAt.Before(contracts[j].CreatedAt) }
		}
	}
	sort.SliceStable(contracts, less)
}
