package domain

import (
	"testing"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func validInput() NewSaleInput {
	return NewSaleInput{
		OrganizationID: uuid.New(),
		DealID:         uuid.New(),
		ProductID:      uuid.New(),
		ProductName:    " Inverter ",
		Quantity:       3,
		UnitPrice:      decimal.RequireFromString("100"),
		Discount:       decimal.RequireFromString("20"),
		Tax:            decimal.RequireFromString("5.5"),
		CustomerID:     uuid.New(),
	}
}

func TestNewSaleComputesTotal(t *testing.T) {
	now := time.Date(2026, 4, 9, 15, 45, 0, 0, time.UTC)
	sale, err := NewSale(validInput(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sale.TotalPrice.Equal(decimal.RequireFromString("285.5")) {
		t.Fatalf("expected 285.5, got %s", sale.TotalPrice)
	}
	if sale.ProductName != "Inverter" {
		t.Fatalf("expected trimmed name, got %q", sale.ProductName)
	}
	if !sale.SaleDate.Equal(time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected sale date to default to today, got %s", sale.SaleDate)
	}
}

func TestNewSaleClampsNegativeTotal(t *testing.T) {
	in := validInput()
	in.Discount = decimal.RequireFromString("1000")
	sale, err := NewSale(in, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sale.TotalPrice.IsZero() {
		t.Fatalf("expected zero total, got %s", sale.TotalPrice)
	}
}

func TestNewSaleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewSaleInput)
	}{
		{"missing deal", func(in *NewSaleInput) { in.DealID = uuid.Nil }},
		{"missing customer", func(in *NewSaleInput) { in.CustomerID = uuid.Nil }},
		{"missing product", func(in *NewSaleInput) { in.ProductID = uuid.Nil }},
		{"zero quantity", func(in *NewSaleInput) { in.Quantity = 0 }},
		{"negative tax", func(in *NewSaleInput) { in.Tax = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := NewSale(in, time.Now()); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
