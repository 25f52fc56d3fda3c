package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateContractRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=5000"`
	Type         string          `json:"type" validate:"omitempty,oneof=sales service subscription framework"`
	CustomerID   uuid.UUID       `json:"customerId" validate:"required"`
	CustomerName string          `json:"customerName" validate:"max=200"`
	Value        decimal.Decimal `json:"value" validate:"decimal_gte0"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
	StartDate    time.Time       `json:"startDate" validate:"required"`
	EndDate      time.Time       `json:"endDate" validate:"required"`
	AssignedTo   *uuid.UUID      `json:"assignedTo,omitempty"`
	Notes        string          `json:"notes" validate:"max=5000"`
	DealID       *uuid.UUID      `json:"dealId,omitempty"`
	DealTitle    string          `json:"dealTitle" validate:"max=200"`
}

type UpdateContractRequest struct {
	Title        *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type         *string          `json:"type,omitempty" validate:"omitempty,oneof=sales service subscription framework"`
	CustomerName *string          `json:"customerName,omitempty" validate:"omitempty,max=200"`
	Value        *decimal.Decimal `json:"value,omitempty" validate:"omitempty,decimal_gte0"`
	Currency     *string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	StartDate    *time.Time       `json:"startDate,omitempty"`
	EndDate      *time.Time       `json:"endDate,omitempty"`
	AssignedTo   *uuid.UUID       `json:"assignedTo,omitempty"`
	Notes        *string          `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type ListContractsRequest struct {
	Search     string `form:"search" validate:"max=100"`
	Status     string `form:"status" validate:"omitempty,max=200"`
	Type       string `form:"type" validate:"omitempty,oneof=sales service subscription framework"`
	CustomerID string `form:"customerId" validate:"omitempty,uuid"`
	DealID     string `form:"dealId" validate:"omitempty,uuid"`
	StartFrom  string `form:"startFrom" validate:"omitempty,max=50"`
	StartTo    string `form:"startTo" validate:"omitempty,max=50"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=createdAt contractNumber value startDate"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type ApprovalRequest struct {
	Stage    string `json:"stage" validate:"required,max=100"`
	Approver string `json:"approver" validate:"required,max=200"`
	Status   string `json:"status" validate:"required,oneof=approved rejected pending"`
	Comments string `json:"comments" validate:"max=2000"`
}
