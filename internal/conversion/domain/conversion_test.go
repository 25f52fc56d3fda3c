package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func wonDeal() Deal {
	return Deal{
		ID:         uuid.New(),
		Title:      "Warehouse roof",
		Stage:      StageClosedWon,
		CustomerID: uuid.New(),
		Value:      decimal.NewFromInt(500),
	}
}

func TestValidateForConversion(t *testing.T) {
	if v := ValidateForConversion(wonDeal()); !v.IsValid || len(v.Errors) != 0 {
		t.Fatalf("expected won deal to be valid, got %+v", v)
	}

	qualified := wonDeal()
	qualified.Stage = "qualified"
	v := ValidateForConversion(qualified)
	if v.IsValid || len(v.Errors) != 1 || !strings.Contains(v.Errors[0], "closed-won") {
		t.Fatalf("expected a closed-won error, got %+v", v)
	}

	broken := Deal{Stage: "lead", Value: decimal.Zero}
	if v := ValidateForConversion(broken); len(v.Errors) != 3 {
		t.Fatalf("expected every rule reported, got %+v", v)
	}
}

func TestPrepareContractDraft(t *testing.T) {
	deal := wonDeal()
	today := time.Date(2026, 1, 20, 17, 30, 0, 0, time.UTC)

	draft := PrepareContractDraft(deal, DraftOptions{Today: today, Currency: "eur", CustomerName: "Acme"})

	if !draft.StartDate.Equal(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", draft.StartDate)
	}
	if !draft.EndDate.Equal(time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected a 30 day term, got end %s", draft.EndDate)
	}
	if draft.DealID != deal.ID || draft.DealTitle != deal.Title {
		t.Fatalf("deal reference lost: %+v", draft)
	}
	if !strings.Contains(draft.Notes, deal.ID.String()) || !strings.Contains(draft.Notes, deal.Title) {
		t.Fatalf("expected provenance in notes, got %q", draft.Notes)
	}
	if draft.Currency != "EUR" || draft.CustomerName != "Acme" {
		t.Fatalf("unexpected currency or customer: %+v", draft)
	}

	custom := PrepareContractDraft(deal, DraftOptions{Today: today, TermDays: 365})
	if !custom.EndDate.Equal(custom.StartDate.AddDate(0, 0, 365)) {
		t.Fatalf("expected configured term, got %s", custom.EndDate)
	}
}

func TestOverridesKeepProvenance(t *testing.T) {
	draft := PrepareContractDraft(wonDeal(), DraftOptions{Today: time.Now()})
	notes := "signed on site"
	title := "Roof service"

	got := Overrides{Title: &title, Notes: &notes}.Apply(draft)

	if got.Title != title {
		t.Fatalf("expected title override, got %q", got.Title)
	}
	if !strings.HasPrefix(got.Notes, draft.Notes) || !strings.HasSuffix(got.Notes, notes) {
		t.Fatalf("expected notes appended, got %q", got.Notes)
	}
}

func TestSaleLines(t *testing.T) {
	deal := wonDeal()
	first := Item{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Panel", Quantity: 3,
		UnitPrice: decimal.NewFromInt(100), Discount: decimal.NewFromInt(20), Tax: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(285)}
	second := Item{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Inverter", Quantity: 1,
		UnitPrice: decimal.NewFromInt(900), LineTotal: decimal.NewFromInt(900)}
	deal.Items = []Item{first, second}
	missing := uuid.New()

	lines, unknown := SaleLines(deal, []uuid.UUID{second.ID, missing, first.ID}, time.Now(), "")

	if len(lines) != 2 || lines[0].ItemID != second.ID || lines[1].ItemID != first.ID {
		t.Fatalf("expected lines in selection order, got %+v", lines)
	}
	if !lines[1].TotalPrice.Equal(decimal.NewFromInt(285)) || lines[1].CustomerID != deal.CustomerID {
		t.Fatalf("unexpected line %+v", lines[1])
	}
	if len(unknown) != 1 || unknown[0] != missing {
		t.Fatalf("expected the unknown id reported, got %v", unknown)
	}
}
