// Package domain holds the contract aggregate and its approval workflow.
package domain

import (
	"fmt"
	"strings"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of a contract.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusActive          Status = "active"
	StatusRejected        Status = "rejected"
	StatusTerminated      Status = "terminated"
)

// Contract types.
const (
	TypeSales        = "sales"
	TypeService      = "service"
	TypeSubscription = "subscription"
	TypeFramework    = "framework"
)

// Approval decisions.
const (
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalPending  = "pending"
)

// ApprovalRecord is one entry of the approval history. Records are appended,
// never edited.
type ApprovalRecord struct {
	ID         uuid.UUID  `json:"id"`
	Stage      string     `json:"stage"`
	Approver   string     `json:"approver"`
	Status     string     `json:"status"`
	Comments   string     `json:"comments"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
}

// Contract is a commercial agreement with a customer. A contract created from
// a deal keeps DealID and DealTitle as a reference only.
type Contract struct {
	ID              uuid.UUID        `json:"id"`
	OrganizationID  uuid.UUID        `json:"organizationId"`
	ContractNumber  string           `json:"contractNumber"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Type            string           `json:"type"`
	Status          Status           `json:"status"`
	CustomerID      uuid.UUID        `json:"customerId"`
	CustomerName    string           `json:"customerName"`
	Value           decimal.Decimal  `json:"value"`
	Currency        string           `json:"currency"`
	StartDate       time.Time        `json:"startDate"`
	EndDate         time.Time        `json:"endDate"`
	AssignedTo      *uuid.UUID       `json:"assignedTo,omitempty"`
	Notes           string           `json:"notes"`
	DealID          *uuid.UUID       `json:"dealId,omitempty"`
	DealTitle       string           `json:"dealTitle"`
	ApprovalHistory []ApprovalRecord `json:"approvalHistory"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// NewContractInput carries the fields accepted when creating a contract.
type NewContractInput struct {
	OrganizationID uuid.UUID
	Title          string
	Description    string
	Type           string
	CustomerID     uuid.UUID
	CustomerName   string
	Value          decimal.Decimal
	Currency       string
	StartDate      time.Time
	EndDate        time.Time
	AssignedTo     *uuid.UUID
	Notes          string
	DealID         *uuid.UUID
	DealTitle      string
}

// FormatNumber renders a contract sequence number as CT-000042.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("CT-%06d", seq)
}

// NewContract validates input and returns a draft. The contract number is
// assigned by the repository.
func NewContract(in NewContractInput, now time.Time) (Contract, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Contract{}, apperr.Validation("contract title is required")
	}
	if in.CustomerID == uuid.Nil {
		return Contract{}, apperr.Validation("contract customer is required")
	}
	if in.Value.IsNegative() {
		return Contract{}, apperr.Validation("contract value cannot be negative")
	}
	if err := validatePeriod(in.StartDate, in.EndDate); err != nil {
		return Contract{}, err
	}
	contractType := in.Type
	if contractType == "" {
		contractType = TypeSales
	}
	if !IsKnownType(contractType) {
		return Contract{}, apperr.Validation(fmt.Sprintf("unknown contract type %q", in.Type))
	}

	return Contract{
		ID:              uuid.New(),
		OrganizationID:  in.OrganizationID,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		Type:            contractType,
		Status:          StatusDraft,
		CustomerID:      in.CustomerID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		Value:           in.Value.Round(2),
		Currency:        strings.ToUpper(strings.TrimSpace(in.Currency)),
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		AssignedTo:      in.AssignedTo,
		Notes:           strings.TrimSpace(in.Notes),
		DealID:          in.DealID,
		DealTitle:       strings.TrimSpace(in.DealTitle),
		ApprovalHistory: []ApprovalRecord{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsKnownType reports whether t is a supported contract type.
func IsKnownType(t string) bool {
	switch t {
	case TypeSales, TypeService, TypeSubscription, TypeFramework:
		return true
	}
	return false
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusDraft, StatusPendingApproval, StatusActive, StatusRejected, StatusTerminated:
		return s, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown contract status %q", raw))
}

// IsEditable reports whether terms may still change.
func (c Contract) IsEditable() bool {
	return c.Status == StatusDraft || c.Status == StatusRejected
}

func validatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("contract start and end dates are required")
	}
	if end.Before(start) {
		return apperr.Validation("contract end date is before its start date")
	}
	return nil
}
