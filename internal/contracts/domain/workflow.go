package domain

import (
	"fmt"
	"strings"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Patch is a partial update of contract terms.
type Patch struct {
	Title        *string
	Description  *string
	Type         *string
	CustomerName *string
	Value        *decimal.Decimal
	Currency     *string
	StartDate    *time.Time
	EndDate      *time.Time
	AssignedTo   *uuid.UUID
	Notes        *string
}

// ApplyPatch changes the terms of a draft or rejected contract. Notes and
// assignee can change in any status.
func ApplyPatch(c Contract, p Patch, now time.Time) (Contract, error) {
	termsChange := p.Title != nil || p.Description != nil || p.Type != nil || p.CustomerName != nil ||
		p.Value != nil || p.Currency != nil || p.StartDate != nil || p.EndDate != nil
	if termsChange && !c.IsEditable() {
		return c, apperr.InvalidTransition(fmt.Sprintf("contract is %s and its terms can no longer change", c.Status))
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return c, apperr.Validation("contract title is required")
		}
		c.Title = title
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.Type != nil {
		if !IsKnownType(*p.Type) {
			return c, apperr.Validation(fmt.Sprintf("unknown contract type %q", *p.Type))
		}
		c.Type = *p.Type
	}
	if p.CustomerName != nil {
		c.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.Value != nil {
		if p.Value.IsNegative() {
			return c, apperr.Validation("contract value cannot be negative")
		}
		c.Value = p.Value.Round(2)
	}
	if p.Currency != nil {
		c.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	start, end := c.StartDate, c.EndDate
	if p.StartDate != nil {
		start = *p.StartDate
	}
	if p.EndDate != nil {
		end = *p.EndDate
	}
	if err := validatePeriod(start, end); err != nil {
		return c, err
	}
	c.StartDate, c.EndDate = start, end
	if p.AssignedTo != nil {
		id := *p.AssignedTo
		c.AssignedTo = &id
	}
	if p.Notes != nil {
		c.Notes = strings.TrimSpace(*p.Notes)
	}
	c.UpdatedAt = now
	return c, nil
}

// Submit sends a draft or rejected contract for approval.
func Submit(c Contract, now time.Time) (Contract, error) {
	if !c.IsEditable() {
		return c, apperr.InvalidTransition(fmt.Sprintf("contract is %s and cannot be submitted", c.Status))
	}
	c.Status = StatusPendingApproval
	c.UpdatedAt = now
	return c, nil
}

// ApprovalInput is a decision on a pending contract.
type ApprovalInput struct {
	Stage    string
	Approver string
	Status   string
	Comments string
}

// RecordApproval appends a decision. Approved activates the contract,
// rejected sends it back, pending only records the step.
func RecordApproval(c Contract, in ApprovalInput, now time.Time) (Contract, ApprovalRecord, error) {
	if c.Status != StatusPendingApproval {
		return c, ApprovalRecord{}, apperr.InvalidTransition(fmt.Sprintf("contract is %s and is not awaiting approval", c.Status))
	}
	approver := strings.TrimSpace(in.Approver)
	if approver == "" {
		return c, ApprovalRecord{}, apperr.Validation("approver is required")
	}
	stage := strings.TrimSpace(in.Stage)
	if stage == "" {
		return c, ApprovalRecord{}, apperr.Validation("approval stage is required")
	}

	record := ApprovalRecord{
		ID:       uuid.New(),
		Stage:    stage,
		Approver: approver,
		Status:   in.Status,
		Comments: strings.TrimSpace(in.Comments),
	}
	switch in.Status {
	case ApprovalApproved:
		c.Status = StatusActive
	case ApprovalRejected:
		c.Status = StatusRejected
	case ApprovalPending:
	default:
		return c, ApprovalRecord{}, apperr.Validation(fmt.Sprintf("unknown approval status %q", in.Status))
	}
	if in.Status != ApprovalPending {
		decided := now
		record.ApprovedAt = &decided
	}

	history := make([]ApprovalRecord, len(c.ApprovalHistory), len(c.ApprovalHistory)+1)
	copy(history, c.ApprovalHistory)
	c.ApprovalHistory = append(history, record)
	c.UpdatedAt = now
	return c, record, nil
}

// Terminate ends an active contract.
func Terminate(c Contract, now time.Time) (Contract, error) {
	if c.Status != StatusActive {
		return c, apperr.InvalidTransition(fmt.Sprintf("contract is %s and cannot be terminated", c.Status))
	}
	c.Status = StatusTerminated
	c.UpdatedAt = now
	return c, nil
}

// CanDelete reports whether the contract may be removed. Active contracts
// must be terminated first.
func CanDelete(c Contract) error {
	if c.Status == StatusActive {
		return apperr.InvalidTransition("an active contract must be terminated before it is deleted")
	}
	return nil
}
