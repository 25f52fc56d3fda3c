package repository

import (
	"context"
	"time"

	"pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ListParams defines filters for listing leads.
type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	Statuses       []domain.Status
	Stages         []domain.Stage
	AssignedTo     *uuid.UUID
	Source         string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	MinScore       *int
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

// Summary aggregates lead counts for dashboards.
type Summary struct {
	Total        int                   `json:"total"`
	ByStatus     map[domain.Status]int `json:"byStatus"`
	ByStage      map[domain.Stage]int  `json:"byStage"`
	AverageScore float64               `json:"averageScore"`
}

// Repository is the persistence port of the leads module.
type Repository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Lead, error)
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
	Summary(ctx context.Context, organizationID uuid.UUID) (Summary, error)
	CountOpenByAssignee(ctx context.Context, organizationID uuid.UUID) (map[uuid.UUID]int, error)
}

// NewSummary returns a summary with every status and stage present.
func NewSummary() Summary {
	s := Summary{
		ByStatus: make(map[domain.Status]int),
		ByStage:  make(map[domain.Stage]int),
	}
	for _, status := range []domain.Status{
		domain.StatusNew, domain.StatusContacted, domain.StatusQualified,
		domain.StatusUnqualified, domain.StatusConverted, domain.StatusLost,
	} {
		s.ByStatus[status] = 0
	}
	for _, stage := range domain.Stages() {
		s.ByStage[stage] = 0
	}
	return s
}
