package domain

import "github.com/shopspring/decimal"

// Stats summarizes a set of deals for the pipeline dashboard.
type Stats struct {
	Total           int                       `json:"total"`
	TotalValue      decimal.Decimal           `json:"totalValue"`
	ByStage         map[Stage]int             `json:"byStage"`
	ByStageValue    map[Stage]decimal.Decimal `json:"byStageValue"`
	ConversionRate  float64                   `json:"conversionRate"`
	AverageDealSize decimal.Decimal           `json:"averageDealSize"`
	WeightedValue   decimal.Decimal           `json:"weightedValue"`
}

// ComputeStats aggregates deals. Conversion rate is won over closed deals and
// the weighted value counts open deals at their probability.
func ComputeStats(deals []Deal) Stats {
	stats := Stats{
		TotalValue:      decimal.Zero,
		ByStage:         make(map[Stage]int, len(stageOrder)),
		ByStageValue:    make(map[Stage]decimal.Decimal, len(stageOrder)),
		AverageDealSize: decimal.Zero,
		WeightedValue:   decimal.Zero,
	}
	for _, s := range Stages() {
		stats.ByStage[s] = 0
		stats.ByStageValue[s] = decimal.Zero
	}

	won, lost := 0, 0
	for _, d := range deals {
		stats.Total++
		stats.TotalValue = stats.TotalValue.Add(d.Value)
		stats.ByStage[d.Stage]++
		stats.ByStageValue[d.Stage] = stats.ByStageValue[d.Stage].Add(d.Value)

		switch d.Stage {
		case StageClosedWon:
			won++
		case StageClosedLost:
			lost++
		}
		if !d.IsTerminal() {
			weight := decimal.NewFromInt(int64(d.Probability)).Div(decimal.NewFromInt(100))
			stats.WeightedValue = stats.WeightedValue.Add(d.Value.Mul(weight))
		}
	}

	if closed := won + lost; closed > 0 {
		stats.ConversionRate = float64(won) / float64(closed)
	}
	if stats.Total > 0 {
		stats.AverageDealSize = stats.TotalValue.Div(decimal.NewFromInt(int64(stats.Total))).Round(2)
	}
	stats.WeightedValue = stats.WeightedValue.Round(2)
	return stats
}
