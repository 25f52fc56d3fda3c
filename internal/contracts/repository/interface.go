package repository

import (
	"context"
	"time"

	"pipeline_backend/internal/contracts/domain"

	"github.com/google/uuid"
)

// ListParams defines filters for listing contracts.
type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	Statuses       []domain.Status
	Type           string
	CustomerID     *uuid.UUID
	DealID         *uuid.UUID
	StartFrom      *time.Time
	StartTo        *time.Time
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

// Repository is the persistence port of the contracts module. Create assigns
// the contract number; approval records are only ever appended.
type Repository interface {
	Create(ctx context.Context, contract domain.Contract) (domain.Contract, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Contract, error)
	Update(ctx context.Context, contract domain.Contract) (domain.Contract, error)
	AppendApproval(ctx context.Context, contract domain.Contract, record domain.ApprovalRecord) (domain.Contract, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]domain.Contract, int, error)
}

const contractNotFoundMsg = "contract not found"
