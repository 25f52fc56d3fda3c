package transport

import (
	"time"

	"pipeline_backend/internal/conversion/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConvertRequest carries optional overrides for the prepared draft.
type ConvertRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type        *string          `json:"type,omitempty" validate:"omitempty,oneof=sales service subscription framework"`
	Value       *decimal.Decimal `json:"value,omitempty" validate:"omitempty,decimal_gte0"`
	Currency    *string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	StartDate   *time.Time       `json:"startDate,omitempty"`
	EndDate     *time.Time       `json:"endDate,omitempty"`
	AssignedTo  *uuid.UUID       `json:"assignedTo,omitempty"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Overrides converts the request into draft overrides.
func (r ConvertRequest) Overrides() domain.Overrides {
	return domain.Overrides{
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Value:       r.Value,
		Currency:    r.Currency,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		AssignedTo:  r.AssignedTo,
		Notes:       r.Notes,
	}
}

type ConvertResponse struct {
	Contract domain.ContractSummary `json:"contract"`
	Draft    domain.ContractDraft   `json:"draft"`
}

type CreateSalesRequest struct {
	ItemIDs  []uuid.UUID `json:"itemIds" validate:"max=200"`
	SaleDate *time.Time  `json:"saleDate,omitempty"`
	Notes    string      `json:"notes" validate:"max=2000"`
}

// SalesResult reports how many ledger lines were written and why the others
// were not.
type SalesResult struct {
	CreatedCount int         `json:"createdCount"`
	CreatedIDs   []uuid.UUID `json:"createdIds"`
	Errors       []string    `json:"errors"`
}
