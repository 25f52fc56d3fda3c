// Package domain holds the sales-ledger entry recorded when a deal's product
// lines are booked as sales.
package domain

import (
	"strings"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSale is one ledger line. It is written once and never updated.
type ProductSale struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organizationId"`
	DealID         uuid.UUID       `json:"dealId"`
	ProductID      uuid.UUID       `json:"productId"`
	ProductName    string          `json:"productName"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	CustomerID     uuid.UUID       `json:"customerId"`
	SaleDate       time.Time       `json:"saleDate"`
	AssignedTo     *uuid.UUID      `json:"assignedTo,omitempty"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewSaleInput carries the fields of a ledger entry before its total is computed.
type NewSaleInput struct {
	OrganizationID uuid.UUID
	DealID         uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	Discount       decimal.Decimal
	Tax            decimal.Decimal
	CustomerID     uuid.UUID
	SaleDate       time.Time
	AssignedTo     *uuid.UUID
	Notes          string
}

// NewSale validates a ledger line and computes its total. A zero sale date
// means the day of now.
func NewSale(in NewSaleInput, now time.Time) (ProductSale, error) {
	switch {
	case in.DealID == uuid.Nil:
		return ProductSale{}, apperr.Validation("product sale deal is required")
	case in.CustomerID == uuid.Nil:
		return ProductSale{}, apperr.Validation("product sale customer is required")
	case in.ProductID == uuid.Nil:
		return ProductSale{}, apperr.Validation("product sale product is required")
	case in.Quantity <= 0:
		return ProductSale{}, apperr.Validation("product sale quantity must be positive")
	case in.UnitPrice.IsNegative(), in.Discount.IsNegative(), in.Tax.IsNegative():
		return ProductSale{}, apperr.Validation("product sale amounts cannot be negative")
	}

	total := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Sub(in.Discount).Add(in.Tax)
	if total.IsNegative() {
		total = decimal.Zero
	}
	saleDate := in.SaleDate
	if saleDate.IsZero() {
		saleDate = now
	}

	return ProductSale{
		ID:             uuid.New(),
		OrganizationID: in.OrganizationID,
		DealID:         in.DealID,
		ProductID:      in.ProductID,
		ProductName:    strings.TrimSpace(in.ProductName),
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		Discount:       in.Discount,
		Tax:            in.Tax,
		TotalPrice:     total.Round(2),
		CustomerID:     in.CustomerID,
		SaleDate:       truncateDay(saleDate),
		AssignedTo:     in.AssignedTo,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
	}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
