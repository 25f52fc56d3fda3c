package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Customer is the master record deals and contracts refer to.
type Customer struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Industry       string    `json:"industry"`
	Website        string    `json:"website"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListParams defines filters for listing customers.
type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	Industry       string
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

// Repository is the persistence port of the customers module.
type Repository interface {
	Create(ctx context.Context, customer Customer) (Customer, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (Customer, error)
	Update(ctx context.Context, customer Customer) (Customer, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]Customer, int, error)
	Exists(ctx context.Context, organizationID, id uuid.UUID) (bool, error)
}

const customerNotFoundMsg = "customer not found"
