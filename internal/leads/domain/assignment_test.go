package domain

import (
	"testing"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

func mustUUID(t *testing.T, raw string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(raw)
	if err != nil {
		t.Fatalf("parse uuid: %v", err)
	}
	return id
}

func TestAutoAssignPicksLeastLoaded(t *testing.T) {
	a := mustUUID(t, "00000000-0000-0000-0000-00000000000a")
	b := mustUUID(t, "00000000-0000-0000-0000-00000000000b")
	pool := []Assignee{
		{ID: a, Active: true, OpenLeads: 4},
		{ID: b, Active: true, OpenLeads: 2},
	}

	got, err := AutoAssign(leadWithStatus(StatusNew), nil, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != b {
		t.Fatalf("expected %s, got %s", b, got)
	}
}

func TestAutoAssignTieBreaksByID(t *testing.T) {
	a := mustUUID(t, "00000000-0000-0000-0000-00000000000a")
	b := mustUUID(t, "00000000-0000-0000-0000-00000000000b")
	pool := []Assignee{
		{ID: b, Active: true, OpenLeads: 1},
		{ID: a, Active: true, OpenLeads: 1},
	}

	for i := 0; i < 3; i++ {
		got, err := AutoAssign(leadWithStatus(StatusNew), nil, pool)
		if err != nil || got != a {
			t.Fatalf("expected deterministic %s, got %s / %v", a, got, err)
		}
	}
}

func TestAutoAssignAppliesFirstMatchingRule(t *testing.T) {
	generalist := mustUUID(t, "00000000-0000-0000-0000-000000000001")
	enterprise := mustUUID(t, "00000000-0000-0000-0000-000000000002")
	pool := []Assignee{
		{ID: generalist, Active: true, OpenLeads: 0},
		{ID: enterprise, Active: true, OpenLeads: 9},
	}
	rules := []AssignmentRule{
		{Name: "enterprise", CompanySizes: []string{CompanySize1000Plus}, Assignees: []uuid.UUID{enterprise}},
	}

	lead := leadWithStatus(StatusNew)
	lead.CompanySize = CompanySize1000Plus

	got, err := AutoAssign(lead, rules, pool)
	if err != nil || got != enterprise {
		t.Fatalf("expected enterprise owner, got %s / %v", got, err)
	}

	lead.CompanySize = CompanySize11to50
	got, err = AutoAssign(lead, rules, pool)
	if err != nil || got != generalist {
		t.Fatalf("expected fallback to generalist, got %s / %v", got, err)
	}
}

func TestAutoAssignSkipsIneligible(t *testing.T) {
	full := mustUUID(t, "00000000-0000-0000-0000-000000000001")
	inactive := mustUUID(t, "00000000-0000-0000-0000-000000000002")
	pool := []Assignee{
		{ID: full, Active: true, OpenLeads: 5, MaxOpenLeads: 5},
		{ID: inactive, Active: false},
	}

	_, err := AutoAssign(leadWithStatus(StatusNew), nil, pool)
	if !apperr.Is(err, apperr.KindAssignment) {
		t.Fatalf("expected assignment error, got %v", err)
	}
}
