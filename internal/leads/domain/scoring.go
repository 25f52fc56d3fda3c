package domain

import (
	"fmt"
	"strings"
	"time"

	"pipeline_backend/platform/apperr"
)

const (
	// ScoreVersion tracks the scoring model. Bump when weights change.
	ScoreVersion = "2026-v1"

	MinScore = 0
	MaxScore = 100

	// Category caps add up to MaxScore, so a score is always in range.
	maxCompanySizePoints = 25
	maxBudgetPoints      = 30
	maxTimelinePoints    = 25
	maxRecencyPoints     = 20
)

// Recognised company sizes (employees).
const (
	CompanySize1to10     = "1-10"
	CompanySize11to50    = "11-50"
	CompanySize51to200   = "51-200"
	CompanySize201to500  = "201-500"
	CompanySize501to1000 = "501-1000"
	CompanySize1000Plus  = "1000+"
)

// Recognised budget ranges.
const (
	BudgetUnder10k   = "<10k"
	Budget10kTo50k   = "10k-50k"
	Budget50kTo100k  = "50k-100k"
	Budget100kTo500k = "100k-500k"
	Budget500kPlus   = "500k+"
)

// Recognised purchase timelines.
const (
	TimelineImmediate   = "immediate"
	Timeline1to3Months  = "1-3 months"
	Timeline3to6Months  = "3-6 months"
	Timeline6to12Months = "6-12 months"
	Timeline12Plus      = "12+ months"
)

var companySizePoints = map[string]int{
	CompanySize1to10:     5,
	CompanySize11to50:    10,
	CompanySize51to200:   15,
	CompanySize201to500:  20,
	CompanySize501to1000: 23,
	CompanySize1000Plus:  maxCompanySizePoints,
}

var budgetPoints = map[string]int{
	BudgetUnder10k:   5,
	Budget10kTo50k:   12,
	Budget50kTo100k:  18,
	Budget100kTo500k: 25,
	Budget500kPlus:   maxBudgetPoints,
}

var timelinePoints = map[string]int{
	TimelineImmediate:   maxTimelinePoints,
	Timeline1to3Months:  20,
	Timeline3to6Months:  12,
	Timeline6to12Months: 6,
	Timeline12Plus:      2,
}

// ScoreFactor explains one contribution to a score.
type ScoreFactor struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// ScoreResult is the outcome of RecalculateScore.
type ScoreResult struct {
	Score   int           `json:"score"`
	Factors []ScoreFactor `json:"factors"`
	Version string        `json:"version"`
}

// RecalculateScore derives the lead score from firmographics, intent and
// engagement recency as of asOf. It is pure: identical input gives identical output.
func RecalculateScore(lead Lead, asOf time.Time) ScoreResult {
	factors := make([]ScoreFactor, 0, 4)
	total := 0

	addFactor := func(name, value string, points, max int) {
		factors = append(factors, ScoreFactor{Name: name, Value: value, Points: points, Max: max})
		total += points
	}

	size := normalizeKey(lead.CompanySize)
	addFactor("company_size", size, companySizePoints[size], maxCompanySizePoints)

	budget := normalizeKey(lead.BudgetRange)
	addFactor("budget_range", budget, budgetPoints[budget], maxBudgetPoints)

	timeline := normalizeKey(lead.Timeline)
	addFactor("timeline", timeline, timelinePoints[timeline], maxTimelinePoints)

	recencyLabel, recency := recencyPoints(lead.LastContact, asOf)
	addFactor("engagement_recency", recencyLabel, recency, maxRecencyPoints)

	return ScoreResult{Score: total, Factors: factors, Version: ScoreVersion}
}

// recencyPoints rewards recent contact; a last contact in the future counts as today.
func recencyPoints(lastContact *time.Time, asOf time.Time) (string, int) {
	if lastContact == nil {
		return "never", 0
	}
	age := asOf.Sub(*lastContact)
	switch {
	case age <= 7*24*time.Hour:
		return "within_7_days", maxRecencyPoints
	case age <= 30*24*time.Hour:
		return "within_30_days", 12
	case age <= 90*24*time.Hour:
		return "within_90_days", 5
	default:
		return "older", 0
	}
}

// ValidateScore rejects scores outside [MinScore, MaxScore].
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return apperr.Validation(fmt.Sprintf("lead score must be between %d and %d, got %d", MinScore, MaxScore, score))
	}
	return nil
}

// SetScore applies a manual score override.
func SetScore(lead Lead, score int, now time.Time) (Lead, error) {
	if err := ValidateScore(score); err != nil {
		return lead, err
	}
	lead.LeadScore = score
	lead.UpdatedAt = now
	return lead, nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
