package domain

import (
	"testing"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func openDeal(t *testing.T, stage Stage) Deal {
	t.Helper()
	d, err := NewDeal(NewDealInput{
		OrganizationID: uuid.New(),
		Title:          "Warehouse rollout",
		CustomerID:     uuid.New(),
		Value:          decimal.RequireFromString("1000"),
		Stage:          stage,
	}, fixedNow)
	if err != nil {
		t.Fatalf("new deal: %v", err)
	}
	return d
}

func TestNewDealDefaults(t *testing.T) {
	d, err := NewDeal(NewDealInput{
		Title:      "  Fleet renewal ",
		CustomerID: uuid.New(),
		Value:      decimal.RequireFromString("99.999"),
		Tags:       []string{"fleet", " Renewal", "FLEET", ""},
	}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Stage != StageLead || d.Status != StatusOpen || d.Probability != 10 {
		t.Fatalf("unexpected defaults: stage=%s status=%s probability=%d", d.Stage, d.Status, d.Probability)
	}
	if d.Title != "Fleet renewal" {
		t.Fatalf("title not trimmed: %q", d.Title)
	}
	if !d.Value.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("value not rounded: %s", d.Value)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "Renewal" || d.Tags[1] != "fleet" {
		t.Fatalf("unexpected tags %v", d.Tags)
	}
}

func TestNewDealValidation(t *testing.T) {
	negative := -5
	cases := []struct {
		name string
		in   NewDealInput
		kind apperr.Kind
	}{
		{"missing title", NewDealInput{CustomerID: uuid.New()}, apperr.KindValidation},
		{"missing customer", NewDealInput{Title: "x"}, apperr.KindValidation},
		{"negative value", NewDealInput{Title: "x", CustomerID: uuid.New(), Value: decimal.NewFromInt(-1)}, apperr.KindValidation},
		{"bad probability", NewDealInput{Title: "x", CustomerID: uuid.New(), Probability: &negative}, apperr.KindValidation},
		{"closed stage", NewDealInput{Title: "x", CustomerID: uuid.New(), Stage: StageClosedWon}, apperr.KindValidation},
		{"unknown stage", NewDealInput{Title: "x", CustomerID: uuid.New(), Stage: "pitch"}, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDeal(tc.in, fixedNow); !apperr.Is(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestUpdateStageForwardOnly(t *testing.T) {
	d := openDeal(t, StageQualified)

	moved, err := UpdateStage(d, StageNegotiation, nil, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.Stage != StageNegotiation || moved.Probability != 75 {
		t.Fatalf("unexpected stage/probability %s/%d", moved.Stage, moved.Probability)
	}

	same, err := UpdateStage(moved, StageNegotiation, nil, fixedNow)
	if err != nil || same.Stage != StageNegotiation {
		t.Fatalf("same stage should be a no-op, got %s / %v", same.Stage, err)
	}

	if _, err := UpdateStage(moved, StageLead, nil, fixedNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition moving backward, got %v", err)
	}
}

func TestUpdateStageClosing(t *testing.T) {
	d := openDeal(t, StageLead)
	closeDate := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	won, err := UpdateStage(d, StageClosedWon, &closeDate, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won.Status != StatusWon || won.Probability != 100 {
		t.Fatalf("unexpected status/probability %s/%d", won.Status, won.Probability)
	}
	if won.ActualCloseDate == nil || !won.ActualCloseDate.Equal(closeDate) {
		t.Fatalf("expected close date %s, got %v", closeDate, won.ActualCloseDate)
	}
	if _, err := UpdateStage(won, StageClosedLost, nil, fixedNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("closed deal should reject stage changes, got %v", err)
	}

	lost, err := UpdateStage(openDeal(t, StageProposal), StageClosedLost, nil, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lost.Status != StatusLost || lost.Probability != 0 || !lost.ActualCloseDate.Equal(fixedNow) {
		t.Fatalf("unexpected lost deal %+v", lost)
	}
}

func TestCancel(t *testing.T) {
	cancelled, err := Cancel(openDeal(t, StageProposal), fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := Cancel(cancelled, fixedNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := UpdateStage(cancelled, StageNegotiation, nil, fixedNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("cancelled deal should reject stage changes, got %v", err)
	}
}

func TestApplyPatch(t *testing.T) {
	d := openDeal(t, StageQualified)
	probability := 40
	title := "Renamed"
	tags := []string{"b", "a", "a"}

	patched, err := ApplyPatch(d, Patch{Title: &title, Probability: &probability, Tags: &tags}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patched.Title != "Renamed" || patched.Probability != 40 || len(patched.Tags) != 2 {
		t.Fatalf("unexpected patch result %+v", patched)
	}

	blank := "  "
	if _, err := ApplyPatch(d, Patch{Title: &blank}, fixedNow); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}
	tooHigh := 101
	if _, err := ApplyPatch(d, Patch{Probability: &tooHigh}, fixedNow); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for probability, got %v", err)
	}
}

func TestFilterOpportunities(t *testing.T) {
	deals := []Deal{
		openDeal(t, StageLead),
		openDeal(t, StageQualified),
		openDeal(t, StageProposal),
		openDeal(t, StageNegotiation),
	}
	won, _ := UpdateStage(openDeal(t, StageLead), StageClosedWon, nil, fixedNow)
	deals = append(deals, won)

	got := FilterOpportunities(deals)
	if len(got) != 3 {
		t.Fatalf("expected 3 opportunities, got %d", len(got))
	}
	for i, want := range []Stage{StageQualified, StageProposal, StageNegotiation} {
		if got[i].Stage != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].Stage)
		}
	}
}
