package pdf

import (
	"bytes"
	"testing"
	"time"

	"pipeline_backend/internal/deals/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func saleItem(name string, qty int, price, discount, tax string) domain.SaleItem {
	item := domain.SaleItem{
		ID:          uuid.New(),
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(price),
		Discount:    decimal.RequireFromString(discount),
		Tax:         decimal.RequireFromString(tax),
	}
	item.LineTotal, _ = domain.ComputeLineTotal(item.UnitPrice, item.Quantity, item.Discount, item.Tax)
	return item
}

func TestComputeTotals(t *testing.T) {
	items := []domain.SaleItem{
		saleItem("Licence", 10, "99.50", "45", "0"),
		saleItem("Onboarding", 1, "500", "0", "105"),
		saleItem("Giveaway", 1, "10", "25", "0"),
	}

	got := ComputeTotals(items)
	if !got.Subtotal.Equal(decimal.RequireFromString("1505")) {
		t.Fatalf("subtotal = %s", got.Subtotal)
	}
	if !got.Discount.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("discount = %s", got.Discount)
	}
	if !got.Tax.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("tax = %s", got.Tax)
	}
	// The giveaway line is clamped at zero, so the total is not subtotal-discount+tax.
	if !got.Total.Equal(decimal.RequireFromString("1555")) {
		t.Fatalf("total = %s", got.Total)
	}
}

func TestGenerateProposalPDF(t *testing.T) {
	closed := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	deals := []domain.Deal{
		{
			ID:          uuid.New(),
			Title:       "Fleet renewal",
			Description: "Forty vehicles over two years",
			Stage:       domain.StageNegotiation,
			Status:      domain.StatusOpen,
			Items:       []domain.SaleItem{saleItem("Van", 2, "30000", "1500", "0")},
		},
		{
			ID:              uuid.New(),
			Title:           "Warehouse",
			Value:           decimal.NewFromInt(2500),
			Stage:           domain.StageClosedWon,
			Status:          domain.StatusWon,
			ActualCloseDate: &closed,
		},
	}

	for _, deal := range deals {
		doc, err := GenerateProposalPDF(ProposalData{
			Deal:             deal,
			CustomerName:     "Acme Logistics",
			OrganizationName: "Pipeline Sales",
			GeneratedAt:      closed,
		})
		if err != nil {
			t.Fatalf("%s: %v", deal.Title, err)
		}
		if !bytes.HasPrefix(doc, []byte("%PDF")) {
			t.Fatalf("%s: output is not a PDF", deal.Title)
		}
	}
}

func TestStageLabel(t *testing.T) {
	if got := stageLabel(domain.StageClosedWon); got != "Closed Won" {
		t.Fatalf("stageLabel = %q", got)
	}
}
