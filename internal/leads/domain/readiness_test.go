package domain

import "testing"

func TestCheckConversionReadinessCollectsAllIssues(t *testing.T) {
	lead := leadWithStatus(StatusContacted)

	report := CheckConversionReadiness(lead)
	if report.Ready {
		t.Fatal("expected not ready")
	}
	if len(report.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(report.Issues), report.Issues)
	}
}

func TestCheckConversionReadinessReady(t *testing.T) {
	lead := leadWithStatus(StatusQualified)
	lead.Email = "buyer@acme.test"
	lead.CompanyName = "Acme"
	lead.LeadScore = 55

	report := CheckConversionReadiness(lead)
	if !report.Ready || len(report.Issues) != 0 {
		t.Fatalf("expected ready, got %+v", report)
	}
}
