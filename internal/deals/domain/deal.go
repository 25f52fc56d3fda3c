// Package domain holds the deal aggregate: its stage machine, the product-line
// calculator that keeps the deal value in sync with its items, and the pure
// pipeline statistics.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the commercial outcome of a deal.
type Status string

const (
	StatusOpen      Status = "open"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusCancelled Status = "cancelled"
)

// Deal is a sales opportunity against a customer.
type Deal struct {
	ID                uuid.UUID       `json:"id"`
	OrganizationID    uuid.UUID       `json:"organizationId"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Value             decimal.Decimal `json:"value"`
	Stage             Stage           `json:"stage"`
	Status            Status          `json:"status"`
	CustomerID        uuid.UUID       `json:"customerId"`
	AssignedTo        *uuid.UUID      `json:"assignedTo,omitempty"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *time.Time      `json:"expectedCloseDate,omitempty"`
	ActualCloseDate   *time.Time      `json:"actualCloseDate,omitempty"`
	Source            string          `json:"source"`
	Campaign          string          `json:"campaign"`
	Tags              []string        `json:"tags"`
	Items             []SaleItem      `json:"items"`
	LeadID            *uuid.UUID      `json:"leadId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// NewDealInput carries the fields accepted when opening a deal.
type NewDealInput struct {
	OrganizationID    uuid.UUID
	Title             string
	Description       string
	Value             decimal.Decimal
	Stage             Stage
	CustomerID        uuid.UUID
	AssignedTo        *uuid.UUID
	Probability       *int
	ExpectedCloseDate *time.Time
	Source            string
	Campaign          string
	Tags              []string
	LeadID            *uuid.UUID
}

// NewDeal validates input and returns an open deal. Stage defaults to lead and
// probability to the stage default. A closed stage is not a valid starting point.
func NewDeal(in NewDealInput, now time.Time) (Deal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Deal{}, apperr.Validation("deal title is required")
	}
	if in.CustomerID == uuid.Nil {
		return Deal{}, apperr.Validation("deal customer is required")
	}
	if in.Value.IsNegative() {
		return Deal{}, apperr.Validation("deal value cannot be negative")
	}

	stage := in.Stage
	if stage == "" {
		stage = StageLead
	}
	if _, ok := stageOrder[stage]; !ok {
		return Deal{}, apperr.Validation(fmt.Sprintf("unknown deal stage %q", stage))
	}
	if IsClosedStage(stage) {
		return Deal{}, apperr.Validation("a deal cannot be created in a closed stage")
	}

	probability := DefaultProbability(stage)
	if in.Probability != nil {
		if err := validateProbability(*in.Probability); err != nil {
			return Deal{}, err
		}
		probability = *in.Probability
	}

	return Deal{
		ID:                uuid.New(),
		OrganizationID:    in.OrganizationID,
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Value:             in.Value.Round(2),
		Stage:             stage,
		Status:            StatusOpen,
		CustomerID:        in.CustomerID,
		AssignedTo:        in.AssignedTo,
		Probability:       probability,
		ExpectedCloseDate: in.ExpectedCloseDate,
		Source:            strings.TrimSpace(in.Source),
		Campaign:          strings.TrimSpace(in.Campaign),
		Tags:              NormalizeTags(in.Tags),
		Items:             []SaleItem{},
		LeadID:            in.LeadID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsTerminal reports whether the deal is closed or cancelled.
func (d Deal) IsTerminal() bool {
	return IsClosedStage(d.Stage) || d.Status == StatusCancelled
}

// HasItems reports whether the value is derived from line items.
func (d Deal) HasItems() bool {
	return len(d.Items) > 0
}

// NormalizeTags trims, drops empties, deduplicates case-insensitively and sorts.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// SetValue sets a manual value. Deals with items derive their value instead.
func SetValue(deal Deal, value decimal.Decimal, now time.Time) (Deal, error) {
	if deal.HasItems() {
		return deal, apperr.Validation("deal value is derived from its items and cannot be set manually")
	}
	if value.IsNegative() {
		return deal, apperr.Validation("deal value cannot be negative")
	}
	deal.Value = value.Round(2)
	deal.UpdatedAt = now
	return deal, nil
}

// Cancel withdraws an open deal.
func Cancel(deal Deal, now time.Time) (Deal, error) {
	if deal.IsTerminal() {
		return deal, apperr.InvalidTransition(fmt.Sprintf("deal in stage %s with status %s cannot be cancelled", deal.Stage, deal.Status))
	}
	deal.Status = StatusCancelled
	deal.UpdatedAt = now
	return deal, nil
}

// Patch is a partial update of descriptive deal fields. Stage, status, items
// and value change only through their own operations.
type Patch struct {
	Title             *string
	Description       *string
	AssignedTo        *uuid.UUID
	ClearAssignee     bool
	Probability       *int
	ExpectedCloseDate *time.Time
	Source            *string
	Campaign          *string
	Tags              *[]string
	CustomerID        *uuid.UUID
}

// ApplyPatch applies p to deal. Closed deals only accept descriptive edits.
func ApplyPatch(deal Deal, p Patch, now time.Time) (Deal, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return deal, apperr.Validation("deal title is required")
		}
		deal.Title = title
	}
	if p.Description != nil {
		deal.Description = strings.TrimSpace(*p.Description)
	}
	if p.ClearAssignee {
		deal.AssignedTo = nil
	} else if p.AssignedTo != nil {
		id := *p.AssignedTo
		deal.AssignedTo = &id
	}
	if p.Probability != nil {
		if deal.IsTerminal() {
			return deal, apperr.InvalidTransition("probability of a closed deal is fixed")
		}
		if err := validateProbability(*p.Probability); err != nil {
			return deal, err
		}
		deal.Probability = *p.Probability
	}
	if p.ExpectedCloseDate != nil {
		d := *p.ExpectedCloseDate
		deal.ExpectedCloseDate = &d
	}
	if p.Source != nil {
		deal.Source = strings.TrimSpace(*p.Source)
	}
	if p.Campaign != nil {
		deal.Campaign = strings.TrimSpace(*p.Campaign)
	}
	if p.Tags != nil {
		deal.Tags = NormalizeTags(*p.Tags)
	}
	if p.CustomerID != nil {
		if *p.CustomerID == uuid.Nil {
			return deal, apperr.Validation("deal customer is required")
		}
		deal.CustomerID = *p.CustomerID
	}
	deal.UpdatedAt = now
	return deal, nil
}

func validateProbability(p int) error {
	if p < 0 || p > 100 {
		return apperr.Validation(fmt.Sprintf("probability must be between 0 and 100, got %d", p))
	}
	return nil
}
