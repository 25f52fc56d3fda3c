package domain

import (
	"slices"
	"sort"
	"strings"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Assignee is a member of the sales team who can own leads.
type Assignee struct {
	ID           uuid.UUID `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Email        string    `json:"email" yaml:"email"`
	Active       bool      `json:"active" yaml:"active"`
	MaxOpenLeads int       `json:"maxOpenLeads" yaml:"maxOpenLeads"`
	OpenLeads    int       `json:"openLeads" yaml:"-"`
}

// Eligible reports whether the assignee can take another lead.
// MaxOpenLeads of zero means unlimited.
func (a Assignee) Eligible() bool {
	if !a.Active {
		return false
	}
	return a.MaxOpenLeads <= 0 || a.OpenLeads < a.MaxOpenLeads
}

// AssignmentRule routes leads matching every non-empty criterion to a subset of the pool.
type AssignmentRule struct {
	Name         string      `json:"name" yaml:"name"`
	Industries   []string    `json:"industries" yaml:"industries"`
	CompanySizes []string    `json:"companySizes" yaml:"companySizes"`
	Sources      []string    `json:"sources" yaml:"sources"`
	MinScore     int         `json:"minScore" yaml:"minScore"`
	Assignees    []uuid.UUID `json:"assignees" yaml:"assignees"`
}

// Matches reports whether the lead satisfies the rule's criteria.
func (r AssignmentRule) Matches(lead Lead) bool {
	if !matchesAny(r.Industries, lead.Industry) {
		return false
	}
	if !matchesAny(r.CompanySizes, lead.CompanySize) {
		return false
	}
	if !matchesAny(r.Sources, lead.Source) {
		return false
	}
	return lead.LeadScore >= r.MinScore
}

func matchesAny(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	value = normalizeKey(value)
	for _, option := range options {
		if normalizeKey(option) == value {
			return true
		}
	}
	return false
}

// AutoAssign picks an owner for the lead. The first matching rule narrows the
// candidates; if it leaves nobody eligible the whole pool is used. Among
// candidates the one with the fewest open leads wins, ties going to the
// lowest id, so the outcome is deterministic for a given pool snapshot.
func AutoAssign(lead Lead, rules []AssignmentRule, pool []Assignee) (uuid.UUID, error) {
	eligible := make([]Assignee, 0, len(pool))
	for _, a := range pool {
		if a.Eligible() {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return uuid.Nil, apperr.Assignment("no eligible assignee is available")
	}

	for _, rule := range rules {
		if !rule.Matches(lead) {
			continue
		}
		narrowed := make([]Assignee, 0, len(rule.Assignees))
		for _, a := range eligible {
			if slices.Contains(rule.Assignees, a.ID) {
				narrowed = append(narrowed, a)
			}
		}
		if len(narrowed) > 0 {
			return leastLoaded(narrowed), nil
		}
		break
	}

	return leastLoaded(eligible), nil
}

func leastLoaded(candidates []Assignee) uuid.UUID {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].OpenLeads != candidates[j].OpenLeads {
			return candidates[i].OpenLeads < candidates[j].OpenLeads
		}
		return strings.Compare(candidates[i].ID.String(), candidates[j].ID.String()) < 0
	})
	return candidates[0].ID
}
