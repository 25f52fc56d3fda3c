package assignment

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

const sampleRules = `
assignees:
  - id: 00000000-0000-0000-0000-000000000001
    name: Sam
    email: sam@example.test
    active: true
    maxOpenLeads: 10
  - id: 00000000-0000-0000-0000-000000000002
    name: Kim
    email: kim@example.test
    active: true
rules:
  - name: enterprise
    companySizes: ["1000+"]
    assignees: [00000000-0000-0000-0000-000000000002]
`

type fakeCounter struct {
	counts map[uuid.UUID]int
}

func (f fakeCounter) CountOpenByAssignee(ctx context.Context, organizationID uuid.UUID) (map[uuid.UUID]int, error) {
	return f.counts, nil
}

func TestParseAndPool(t *testing.T) {
	sam := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	cfg, err := Parse([]byte(sampleRules), fakeCounter{counts: map[uuid.UUID]int{sam: 3}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(cfg.Rules()) != 1 || cfg.Rules()[0].Name != "enterprise" {
		t.Fatalf("unexpected rules %+v", cfg.Rules())
	}

	pool, err := cfg.Pool(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 2 || pool[0].OpenLeads != 3 || pool[0].MaxOpenLeads != 10 {
		t.Fatalf("unexpected pool %+v", pool)
	}

	if a, ok := cfg.Lookup(sam); !ok || a.Email != "sam@example.test" {
		t.Fatalf("lookup failed: %+v", a)
	}
}

func TestParseRejectsUnknownRuleAssignee(t *testing.T) {
	raw := `
assignees: []
rules:
  - name: broken
    assignees: [00000000-0000-0000-0000-000000000009]
`
	if _, err := Parse([]byte(raw), nil); err == nil {
		t.Fatal("expected error for unknown assignee")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pool, _ := cfg.Pool(context.Background(), uuid.New())
	if len(pool) != 0 {
		t.Fatalf("expected empty pool, got %d", len(pool))
	}
}
