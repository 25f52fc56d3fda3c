package repository

import (
	"context"
	"sort"
	"strings"

	"pipeline_backend/internal/leads/domain"
	"pipeline_backend/internal/shared/memstore"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

const leadNotFoundMsg = "lead not found"

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps leads in process memory.
type MemoryRepository struct {
	store *memstore.Store[domain.Lead]
}

// NewMemory creates an empty in-memory lead repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: memstore.New(cloneLead)}
}

func cloneLead(l domain.Lead) domain.Lead {
	l.AssignedTo = cloneUUID(l.AssignedTo)
	l.ConvertedCustomerID = cloneUUID(l.ConvertedCustomerID)
	if l.NextFollowUp != nil {
		v := *l.NextFollowUp
		l.NextFollowUp = &v
	}
	if l.LastContact != nil {
		v := *l.LastContact
		l.LastContact = &v
	}
	if l.ConvertedAt != nil {
		v := *l.ConvertedAt
		l.ConvertedAt = &v
	}
	return l
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func (r *MemoryRepository) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	r.store.Put(lead.ID, lead)
	return lead, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, organizationID, id uuid.UUID) (domain.Lead, error) {
	lead, ok := r.store.Get(id)
	if !ok || lead.OrganizationID != organizationID {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	return lead, nil
}

func (r *MemoryRepository) Update(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	existing, ok := r.store.Get(lead.ID)
	if !ok || existing.OrganizationID != lead.OrganizationID {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	r.store.Replace(lead.ID, lead)
	return lead, nil
}

func (r *MemoryRepository) Delete(_ context.Context, organizationID, id uuid.UUID) error {
	existing, ok := r.store.Get(id)
	if !ok || existing.OrganizationID != organizationID {
		return apperr.NotFound(leadNotFoundMsg)
	}
	r.store.Delete(id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, params ListParams) ([]domain.Lead, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.Lead{}, 0, nil
	}

	matches := r.store.Filter(func(l domain.Lead) bool {
		return l.OrganizationID == params.OrganizationID && matchesFilters(l, params)
	})
	sortLeads(matches, params.SortBy, params.SortOrder)
	return paging.Slice(matches, params.Offset, params.Limit), len(matches), nil
}

func (r *MemoryRepository) Summary(_ context.Context, organizationID uuid.UUID) (Summary, error) {
	summary := NewSummary()
	if organizationID == uuid.Nil {
		return summary, nil
	}
	leads := r.store.Filter(func(l domain.Lead) bool { return l.OrganizationID == organizationID })
	scoreSum := 0
	for _, l := range leads {
		summary.Total++
		summary.ByStatus[l.Status]++
		summary.ByStage[l.Stage]++
		scoreSum += l.LeadScore
	}
	if summary.Total > 0 {
		summary.AverageScore = float64(scoreSum) / float64(summary.Total)
	}
	return summary, nil
}

func (r *MemoryRepository) CountOpenByAssignee(_ context.Context, organizationID uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, l := range r.store.Filter(func(l domain.Lead) bool {
		return l.OrganizationID == organizationID && l.AssignedTo != nil && !l.IsTerminal()
	}) {
		counts[*l.AssignedTo]++
	}
	return counts, nil
}

func matchesFilters(l domain.Lead, p ListParams) bool {
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		haystack := strings.ToLower(strings.Join([]string{l.FirstName, l.LastName, l.Email, l.CompanyName, l.Phone}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if len(p.Statuses) > 0 && !containsStatus(p.Statuses, l.Status) {
		return false
	}
	if len(p.Stages) > 0 && !containsStage(p.Stages, l.Stage) {
		return false
	}
	if p.AssignedTo != nil && (l.AssignedTo == nil || *l.AssignedTo != *p.AssignedTo) {
		return false
	}
	if p.Source != "" && !strings.EqualFold(l.Source, p.Source) {
		return false
	}
	if p.CreatedFrom != nil && l.CreatedAt.Before(*p.CreatedFrom) {
		return false
	}
	if p.CreatedTo != nil && l.CreatedAt.After(*p.CreatedTo) {
		return false
	}
	if p.MinScore != nil && l.LeadScore < *p.MinScore {
		return false
	}
	return true
}

func containsStatus(values []domain.Status, v domain.Status) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsStage(values []domain.Stage, v domain.Stage) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func sortLeads(leads []domain.Lead, sortBy, sortOrder string) {
	less := func(i, j int) bool { return leads[i].CreatedAt.After(leads[j].CreatedAt) }
	asc := sortOrder == "asc"
	switch sortBy {
	case "leadScore":
		less = func(i, j int) bool {
			if asc {
				return leads[i].LeadScore < leads[j].LeadScore
			}
			return leads[i].LeadScore > leads[j].LeadScore
		}
	case "lastName":
		less = func(i, j int) bool {
			if asc {
				return leads[i].LastName < leads[j].LastName
			}
			return leads[i].LastName > leads[j].LastName
		}
	case "companyName":
		less = func(i, j int) bool {
			if asc {
				return leads[i].CompanyName < leads[j].CompanyName
			}
			return leads[i].CompanyName > leads[j].CompanyName
		}
	default:
		if asc {
			less = func(i, j int) bool { return leads[i].CreatedAt.Before(leads[j].CreatedAt) }
		}
	}
	sort.SliceStable(leads, less)
}
