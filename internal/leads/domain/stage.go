package domain

import (
	"fmt"
	"time"

	"pipeline_backend/platform/apperr"
)

// Stage is the buyer-journey stage of a lead.
type Stage string

const (
	StageAwareness     Stage = "awareness"
	StageInterest      Stage = "interest"
	StageConsideration Stage = "consideration"
	StageIntent        Stage = "intent"
	StageEvaluation    Stage = "evaluation"
	StagePurchase      Stage = "purchase"
)

var stageOrder = map[Stage]int{
	StageAwareness:     0,
	StageInterest:      1,
	StageConsideration: 2,
	StageIntent:        3,
	StageEvaluation:    4,
	StagePurchase:      5,
}

// Stages returns every stage in journey order.
func Stages() []Stage {
	return []Stage{StageAwareness, StageInterest, StageConsideration, StageIntent, StageEvaluation, StagePurchase}
}

// ParseStage validates a raw stage value.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if _, ok := stageOrder[s]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown lead stage %q", raw))
	}
	return s, nil
}

// AdvanceStage moves the lead forward in the journey. Moving to the current
// stage is a no-op; moving backward or touching a terminal lead fails.
func AdvanceStage(lead Lead, to Stage, now time.Time) (Lead, error) {
	target, ok := stageOrder[to]
	if !ok {
		return lead, apperr.Validation(fmt.Sprintf("unknown lead stage %q", to))
	}
	if lead.IsTerminal() {
		return lead, apperr.InvalidTransition(fmt.Sprintf("lead is %s and its stage can no longer change", lead.Status))
	}

	current := stageOrder[lead.Stage]
	if target == current {
		return lead, nil
	}
	if target < current {
		return lead, apperr.InvalidTransition(
			fmt.Sprintf("lead stage cannot move back from %s to %s", lead.Stage, to),
		)
	}

	lead.Stage = to
	lead.UpdatedAt = now
	return lead, nil
}
