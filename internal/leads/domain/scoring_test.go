package domain

import (
	"testing"
	"time"

	"pipeline_backend/platform/apperr"
)

func TestRecalculateScoreIsIdempotent(t *testing.T) {
	lastContact := fixedNow.Add(-3 * 24 * time.Hour)
	lead := leadWithStatus(StatusContacted)
	lead.CompanySize = CompanySize201to500
	lead.BudgetRange = Budget100kTo500k
	lead.Timeline = Timeline1to3Months
	lead.LastContact = &lastContact

	first := RecalculateScore(lead, fixedNow)
	second := RecalculateScore(lead, fixedNow)

	if first.Score != second.Score {
		t.Fatalf("scores differ: %d vs %d", first.Score, second.Score)
	}
	if first.Score != 20+25+20+20 {
		t.Fatalf("expected 85, got %d", first.Score)
	}
	if first.Version != ScoreVersion {
		t.Fatalf("expected version %s, got %s", ScoreVersion, first.Version)
	}
}

func TestRecalculateScoreDoesNotTouchStatus(t *testing.T) {
	lead := leadWithStatus(StatusQualified)
	lead.CompanySize = CompanySize1000Plus

	RecalculateScore(lead, fixedNow)
	if lead.Status != StatusQualified {
		t.Fatalf("status changed to %s", lead.Status)
	}
}

func TestRecalculateScoreStaysInRange(t *testing.T) {
	now := fixedNow
	lead := leadWithStatus(StatusNew)
	lead.CompanySize = CompanySize1000Plus
	lead.BudgetRange = Budget500kPlus
	lead.Timeline = TimelineImmediate
	lead.LastContact = &now

	result := RecalculateScore(lead, fixedNow)
	if result.Score != MaxScore {
		t.Fatalf("expected max score, got %d", result.Score)
	}

	empty := RecalculateScore(leadWithStatus(StatusNew), fixedNow)
	if empty.Score != MinScore {
		t.Fatalf("expected zero score for empty lead, got %d", empty.Score)
	}
}

func TestRecencyDecays(t *testing.T) {
	lead := leadWithStatus(StatusContacted)
	old := fixedNow.Add(-45 * 24 * time.Hour)
	lead.LastContact = &old

	result := RecalculateScore(lead, fixedNow)
	if result.Score != 5 {
		t.Fatalf("expected 5 recency points for a 45-day-old contact, got %d", result.Score)
	}
}

func TestSetScoreRejectsOutOfRange(t *testing.T) {
	lead := leadWithStatus(StatusNew)

	for _, score := range []int{-1, 101} {
		got, err := SetScore(lead, score, fixedNow)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %d, got %v", score, err)
		}
		if got.LeadScore != 0 {
			t.Fatalf("score must not be clamped, got %d", got.LeadScore)
		}
	}

	updated, err := SetScore(lead, 77, fixedNow)
	if err != nil || updated.LeadScore != 77 {
		t.Fatalf("expected 77, got %d / %v", updated.LeadScore, err)
	}
}
