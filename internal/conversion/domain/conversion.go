// Package domain holds the pure rules for turning a won deal into a contract
// draft and into sales-ledger lines. It works on snapshots and never persists.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTermDays is the contract length used when none is configured.
const DefaultTermDays = 30

// StageClosedWon is the only deal stage that can be converted.
const StageClosedWon = "closed_won"

// Deal is the snapshot of a deal the orchestrators work on.
type Deal struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	Description    string
	Stage          string
	CustomerID     uuid.UUID
	Value          decimal.Decimal
	AssignedTo     *uuid.UUID
	Items          []Item
}

// Item is one product line of the deal snapshot.
type Item struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	LineTotal   decimal.Decimal
}

// Validation lists every reason a deal cannot be converted.
type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateForConversion checks every conversion rule and reports all
// violations at once.
func ValidateForConversion(d Deal) Validation {
	errs := make([]string, 0, 3)
	if d.Stage != StageClosedWon {
		errs = append(errs, fmt.Sprintf("deal must be closed-won to be converted (current stage: %s)", d.Stage))
	}
	if d.CustomerID == uuid.Nil {
		errs = append(errs, "deal has no customer")
	}
	if !d.Value.IsPositive() {
		errs = append(errs, "deal value must be greater than zero")
	}
	return Validation{IsValid: len(errs) == 0, Errors: errs}
}

// DraftOptions tune PrepareContractDraft.
type DraftOptions struct {
	Today        time.Time
	TermDays     int
	Currency     string
	CustomerName string
}

// ContractDraft is a contract proposal derived from a deal, ready to be
// reviewed and submitted.
type ContractDraft struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Type         string          `json:"type"`
	CustomerID   uuid.UUID       `json:"customerId"`
	CustomerName string          `json:"customerName"`
	Value        decimal.Decimal `json:"value"`
	Currency     string          `json:"currency"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	AssignedTo   *uuid.UUID      `json:"assignedTo,omitempty"`
	Notes        string          `json:"notes"`
	DealID       uuid.UUID       `json:"dealId"`
	DealTitle    string          `json:"dealTitle"`
}

// PrepareContractDraft builds a sales contract draft running from today for
// the configured term.
func PrepareContractDraft(d Deal, opts DraftOptions) ContractDraft {
	term := opts.TermDays
	if term <= 0 {
		term = DefaultTermDays
	}
	y, m, day := opts.Today.UTC().Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)

	return ContractDraft{
		Title:        fmt.Sprintf("Contract: %s", d.Title),
		Description:  d.Description,
		Type:         "sales",
		CustomerID:   d.CustomerID,
		CustomerName: opts.CustomerName,
		Value:        d.Value,
		Currency:     strings.ToUpper(opts.Currency),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, term),
		AssignedTo:   d.AssignedTo,
		Notes:        fmt.Sprintf("Created from deal %q (%s).", d.Title, d.ID),
		DealID:       d.ID,
		DealTitle:    d.Title,
	}
}

// Overrides replace parts of a prepared draft before it is persisted.
type Overrides struct {
	Title       *string
	Description *string
	Type        *string
	Value       *decimal.Decimal
	Currency    *string
	StartDate   *time.Time
	EndDate     *time.Time
	AssignedTo  *uuid.UUID
	Notes       *string
}

// Apply returns the draft with every non-nil override set. Notes are appended
// so the provenance line survives.
func (o Overrides) Apply(draft ContractDraft) ContractDraft {
	if o.Title != nil {
		draft.Title = *o.Title
	}
	if o.Description != nil {
		draft.Description = *o.Description
	}
	if o.Type != nil {
		draft.Type = *o.Type
	}
	if o.Value != nil {
		draft.Value = *o.Value
	}
	if o.Currency != nil {
		draft.Currency = strings.ToUpper(*o.Currency)
	}
	if o.StartDate != nil {
		draft.StartDate = *o.StartDate
	}
	if o.EndDate != nil {
		draft.EndDate = *o.EndDate
	}
	if o.AssignedTo != nil {
		id := *o.AssignedTo
		draft.AssignedTo = &id
	}
	if o.Notes != nil && strings.TrimSpace(*o.Notes) != "" {
		draft.Notes = draft.Notes + "\n" + strings.TrimSpace(*o.Notes)
	}
	return draft
}

// SaleLine is one sales-ledger entry derived from a deal item.
type SaleLine struct {
	ItemID      uuid.UUID
	DealID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	TotalPrice  decimal.Decimal
	CustomerID  uuid.UUID
	SaleDate    time.Time
	AssignedTo  *uuid.UUID
	Notes       string
}

// SaleLines maps the selected item ids to ledger lines in selection order.
// Ids that do not belong to the deal are returned separately.
func SaleLines(d Deal, itemIDs []uuid.UUID, saleDate time.Time, notes string) ([]SaleLine, []uuid.UUID) {
	byID := make(map[uuid.UUID]Item, len(d.Items))
	for _, item := range d.Items {
		byID[item.ID] = item
	}

	lines := make([]SaleLine, 0, len(itemIDs))
	var unknown []uuid.UUID
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		lineNotes := notes
		if lineNotes == "" {
			lineNotes = fmt.Sprintf("From deal %q", d.Title)
		}
		lines = append(lines, SaleLine{
			ItemID:      item.ID,
			DealID:      d.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Tax:         item.Tax,
			TotalPrice:  item.LineTotal,
			CustomerID:  d.CustomerID,
			SaleDate:    saleDate,
			AssignedTo:  d.AssignedTo,
			Notes:       lineNotes,
		})
	}
	return lines, unknown
}

// ContractSummary is the view of a contract linked to a deal.
type ContractSummary struct {
	ID             uuid.UUID       `json:"id"`
	ContractNumber string          `json:"contractNumber"`
	Title          string          `json:"title"`
	Status         string          `json:"status"`
	Value          decimal.Decimal `json:"value"`
	Currency       string          `json:"currency"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	CreatedAt      time.Time       `json:"createdAt"`
}
