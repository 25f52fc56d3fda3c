// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"pipeline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is captured.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	Source     string     `json:"source"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published after a successful status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadAssigned is published when a lead gets a new owner.
type LeadAssigned struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
	AssigneeID uuid.UUID `json:"assigneeId"`
	LeadName   string    `json:"leadName"`
	Automatic  bool      `json:"automatic"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadFollowUpDue is published by the scheduler worker when a follow-up reminder fires.
type LeadFollowUpDue struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	TenantID    uuid.UUID  `json:"tenantId"`
	LeadName    string     `json:"leadName"`
	AssignedTo  *uuid.UUID `json:"assignedTo,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
}

func (e LeadFollowUpDue) EventName() string { return "leads.followup.due" }

// LeadConverted is published when a lead becomes a customer.
type LeadConverted struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	CustomerID uuid.UUID  `json:"customerId"`
	DealID     *uuid.UUID `json:"dealId,omitempty"`
}

func (e LeadConverted) EventName() string { return "leads.lead.converted" }

// =============================================================================
// Deals Domain Events
// =============================================================================

// DealCreated is published when a deal is opened.
type DealCreated struct {
	BaseEvent
	DealID     uuid.UUID `json:"dealId"`
	TenantID   uuid.UUID `json:"tenantId"`
	CustomerID uuid.UUID `json:"customerId"`
	Value      string    `json:"value"`
}

func (e DealCreated) EventName() string { return "deals.deal.created" }

// DealStageChanged is published after a stage transition.
type DealStageChanged struct {
	BaseEvent
	DealID     uuid.UUID  `json:"dealId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	Title      string     `json:"title"`
	OldStage   string     `json:"oldStage"`
	NewStage   string     `json:"newStage"`
	Value      string     `json:"value"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
}

func (e DealStageChanged) EventName() string { return "deals.deal.stage_changed" }

// DealDeleted is published after a deal is removed.
type DealDeleted struct {
	BaseEvent
	DealID   uuid.UUID `json:"dealId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (e DealDeleted) EventName() string { return "deals.deal.deleted" }

// =============================================================================
// Conversion Domain Events
// =============================================================================

// DealConvertedToContract is published when a closed-won deal produces a contract.
type DealConvertedToContract struct {
	BaseEvent
	DealID     uuid.UUID `json:"dealId"`
	ContractID uuid.UUID `json:"contractId"`
	TenantID   uuid.UUID `json:"tenantId"`
}

func (e DealConvertedToContract) EventName() string { return "conversion.deal.contract_created" }

// ProductSalesCreated is published after sales-ledger entries are emitted for a deal.
type ProductSalesCreated struct {
	BaseEvent
	DealID       uuid.UUID `json:"dealId"`
	TenantID     uuid.UUID `json:"tenantId"`
	CreatedCount int       `json:"createdCount"`
	FailedCount  int       `json:"failedCount"`
}

func (e ProductSalesCreated) EventName() string { return "conversion.deal.product_sales_created" }

// =============================================================================
// Contracts Domain Events
// =============================================================================

// ContractApprovalRecorded is published when an approval record is appended.
type ContractApprovalRecorded struct {
	BaseEvent
	ContractID     uuid.UUID  `json:"contractId"`
	TenantID       uuid.UUID  `json:"tenantId"`
	ContractNumber string     `json:"contractNumber"`
	AssignedTo     *uuid.UUID `json:"assignedTo,omitempty"`
	Stage          string     `json:"stage"`
	Status         string     `json:"status"`
	Comments       string     `json:"comments"`
}

func (e ContractApprovalRecorded) EventName() string { return "contracts.approval.recorded" }
