package domain

import (
	"fmt"
	"time"

	"pipeline_backend/platform/apperr"
)

// Stage is the pipeline position of a deal.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

// Both closed stages share the last rank; either is reachable from any open stage.
var stageOrder = map[Stage]int{
	StageLead:        0,
	StageQualified:   1,
	StageProposal:    2,
	StageNegotiation: 3,
	StageClosedWon:   4,
	StageClosedLost:  4,
}

var defaultProbability = map[Stage]int{
	StageLead:        10,
	StageQualified:   25,
	StageProposal:    50,
	StageNegotiation: 75,
	StageClosedWon:   100,
	StageClosedLost:  0,
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	return []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}
}

// ParseStage validates a raw stage value.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if _, ok := stageOrder[s]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown deal stage %q", raw))
	}
	return s, nil
}

// DefaultProbability is the win probability assumed for a stage.
func DefaultProbability(s Stage) int {
	return defaultProbability[s]
}

// IsClosedStage reports closed_won and closed_lost.
func IsClosedStage(s Stage) bool {
	return s == StageClosedWon || s == StageClosedLost
}

// IsOpportunityStage reports the stages in which a deal counts as an opportunity.
func IsOpportunityStage(s Stage) bool {
	return s == StageQualified || s == StageProposal || s == StageNegotiation
}

// IsOpportunity reports whether the deal is an opportunity by stage.
func IsOpportunity(d Deal) bool {
	return IsOpportunityStage(d.Stage)
}

// FilterOpportunities keeps the opportunities, preserving order.
func FilterOpportunities(deals []Deal) []Deal {
	out := make([]Deal, 0, len(deals))
	for _, d := range deals {
		if IsOpportunity(d) {
			out = append(out, d)
		}
	}
	return out
}

// UpdateStage moves a deal through the pipeline. Moving to the current stage
// is a no-op. Open deals move forward or straight to a closed stage; moving
// backward fails. Closing stamps actualCloseDate (closeDate or now), the
// won/lost status and a 100/0 probability. Terminal deals reject every call.
func UpdateStage(deal Deal, to Stage, closeDate *time.Time, now time.Time) (Deal, error) {
	target, ok := stageOrder[to]
	if !ok {
		return deal, apperr.Validation(fmt.Sprintf("unknown deal stage %q", to))
	}
	if deal.Status == StatusCancelled {
		return deal, apperr.InvalidTransition("a cancelled deal cannot change stage")
	}
	if IsClosedStage(deal.Stage) {
		return deal, apperr.InvalidTransition(fmt.Sprintf("deal is already %s", deal.Stage))
	}
	if deal.Stage == to {
		return deal, nil
	}
	if target < stageOrder[deal.Stage] {
		return deal, apperr.InvalidTransition(
			fmt.Sprintf("deal stage cannot move back from %s to %s", deal.Stage, to),
		).WithDetails(map[string]string{"from": string(deal.Stage), "to": string(to)})
	}

	deal.Stage = to
	deal.Probability = DefaultProbability(to)
	deal.UpdatedAt = now

	if IsClosedStage(to) {
		closed := now
		if closeDate != nil {
			closed = *closeDate
		}
		deal.ActualCloseDate = &closed
		deal.Status = StatusLost
		if to == StageClosedWon {
			deal.Status = StatusWon
		}
	}
	return deal, nil
}
