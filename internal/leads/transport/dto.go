package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateLeadRequest struct {
	FirstName    string     `json:"firstName" validate:"max=100"`
	LastName     string     `json:"lastName" validate:"max=100"`
	Email        string     `json:"email" validate:"omitempty,email,max=200"`
	Phone        string     `json:"phone" validate:"max=50"`
	Mobile       string     `json:"mobile" validate:"max=50"`
	JobTitle     string     `json:"jobTitle" validate:"max=100"`
	CompanyName  string     `json:"companyName" validate:"max=200"`
	Industry     string     `json:"industry" validate:"max=100"`
	CompanySize  string     `json:"companySize" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	Source       string     `json:"source" validate:"max=100"`
	Campaign     string     `json:"campaign" validate:"max=100"`
	BudgetRange  string     `json:"budgetRange" validate:"omitempty,oneof=<10k 10k-50k 50k-100k 100k-500k 500k+"`
	Timeline     string     `json:"timeline" validate:"omitempty,oneof=immediate '1-3 months' '3-6 months' '6-12 months' '12+ months'"`
	AssignedTo   *uuid.UUID `json:"assignedTo,omitempty"`
	NextFollowUp *time.Time `json:"nextFollowUp,omitempty"`
	Notes        string     `json:"notes" validate:"max=5000"`
}

type UpdateLeadRequest struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Mobile      *string `json:"mobile,omitempty" validate:"omitempty,max=50"`
	JobTitle    *string `json:"jobTitle,omitempty" validate:"omitempty,max=100"`
	CompanyName *string `json:"companyName,omitempty" validate:"omitempty,max=200"`
	Industry    *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	CompanySize *string `json:"companySize,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	Source      *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Campaign    *string `json:"campaign,omitempty" validate:"omitempty,max=100"`
	BudgetRange *string `json:"budgetRange,omitempty" validate:"omitempty,oneof=<10k 10k-50k 50k-100k 100k-500k 500k+"`
	Timeline    *string `json:"timeline,omitempty" validate:"omitempty,oneof=immediate '1-3 months' '3-6 months' '6-12 months' '12+ months'"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type ListLeadsRequest struct {
	Search      string `form:"search" validate:"max=100"`
	Status      string `form:"status" validate:"omitempty,max=200"`
	Stage       string `form:"stage" validate:"omitempty,max=200"`
	AssignedTo  string `form:"assignedTo" validate:"omitempty,uuid"`
	Source      string `form:"source" validate:"omitempty,max=100"`
	CreatedFrom string `form:"createdFrom" validate:"omitempty,max=50"`
	CreatedTo   string `form:"createdTo" validate:"omitempty,max=50"`
	MinScore    *int   `form:"minScore" validate:"omitempty,min=0,max=100"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy      string `form:"sortBy" validate:"omitempty,oneof=createdAt leadScore lastName companyName"`
	SortOrder   string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type TransitionStatusRequest struct {
	Status     string     `json:"status" validate:"required"`
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
}

type AdvanceStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// SetScoreRequest carries a manual override. Range is enforced by the domain.
type SetScoreRequest struct {
	Score *int `json:"score" validate:"required"`
}

type AssignLeadRequest struct {
	// AssigneeID nil means auto-assign by rules.
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
}

type ScheduleFollowUpRequest struct {
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
}

type ConvertLeadRequest struct {
	CustomerID *uuid.UUID       `json:"customerId,omitempty"`
	CreateDeal bool             `json:"createDeal"`
	DealTitle  string           `json:"dealTitle" validate:"max=200"`
	DealValue  *decimal.Decimal `json:"dealValue,omitempty" validate:"omitempty,decimal_gte0"`
}

type ConvertLeadResponse struct {
	LeadID     uuid.UUID  `json:"leadId"`
	CustomerID uuid.UUID  `json:"customerId"`
	DealID     *uuid.UUID `json:"dealId,omitempty"`
}

type AssignmentResponse struct {
	LeadID     uuid.UUID `json:"leadId"`
	AssigneeID uuid.UUID `json:"assigneeId"`
	Automatic  bool      `json:"automatic"`
}
