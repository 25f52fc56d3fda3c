package repository

import (
	"context"
	"time"

	"pipeline_backend/internal/deals/domain"

	"github.com/google/uuid"
)

// ListParams defines filters for listing deals.
type ListParams struct {
	OrganizationID    uuid.UUID
	Search            string
	Stages            []domain.Stage
	Statuses          []domain.Status
	CustomerID        *uuid.UUID
	AssignedTo        *uuid.UUID
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
	ExpectedCloseFrom *time.Time
	ExpectedCloseTo   *time.Time
	Offset            int
	Limit             int
	SortBy            string
	SortOrder         string
}

// Repository is the persistence port of the deals module. Items are stored
// with their deal; Create and Update persist the complete item list.
type Repository interface {
	Create(ctx context.Context, deal domain.Deal) (domain.Deal, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Deal, error)
	Update(ctx context.Context, deal domain.Deal) (domain.Deal, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]domain.Deal, int, error)
	// ListForStats returns every deal of the tenant without items.
	ListForStats(ctx context.Context, organizationID uuid.UUID) ([]domain.Deal, error)
	ExistsForCustomer(ctx context.Context, organizationID, customerID uuid.UUID) (bool, error)
}

const dealNotFoundMsg = "deal not found"
