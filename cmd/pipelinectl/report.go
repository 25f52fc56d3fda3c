package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	dealdomain "pipeline_backend/internal/deals/domain"
	"pipeline_backend/internal/exports"
	leaddomain "pipeline_backend/internal/leads/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
)

// loadDeals reads a deals CSV export. Bad lines are reported, not fatal.
func loadDeals(r io.Reader) ([]dealdomain.Deal, exports.ImportResult) {
	deals := make([]dealdomain.Deal, 0)
	result := exports.ImportCSV(r, func(row exports.Row) error {
		stage, err := dealdomain.ParseStage(row.Get("stage"))
		if err != nil {
			return err
		}
		value := decimal.Zero
		if row.Has("value") {
			if value, err = decimal.NewFromString(row.Get("value")); err != nil {
				return fmt.Errorf("invalid value %q", row.Get("value"))
			}
		}
		probability := dealdomain.DefaultProbability(stage)
		if row.Has("probability") {
			if probability, err = strconv.Atoi(row.Get("probability")); err != nil {
				return fmt.Errorf("invalid probability %q", row.Get("probability"))
			}
		}
		status := dealdomain.Status(row.Get("status"))
		if status == "" {
			status = dealdomain.StatusOpen
		}

		deals = append(deals, dealdomain.Deal{
			Title:       row.Get("title"),
			Stage:       stage,
			Status:      status,
			Value:       value,
			Probability: probability,
		})
		return nil
	})
	return deals, result
}

func renderDealStats(w io.Writer, deals []dealdomain.Deal) {
	stats := dealdomain.ComputeStats(deals)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Pipeline")
	t.AppendHeader(table.Row{"Stage", "Deals", "Value"})
	for _, stage := range dealdomain.Stages() {
		t.AppendRow(table.Row{string(stage), stats.ByStage[stage], stats.ByStageValue[stage].StringFixed(2)})
	}
	t.AppendFooter(table.Row{"Total", stats.Total, stats.TotalValue.StringFixed(2)})
	t.Render()

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.AppendRows([]table.Row{
		{"Weighted value", stats.WeightedValue.StringFixed(2)},
		{"Average deal size", stats.AverageDealSize.StringFixed(2)},
		{"Conversion rate", fmt.Sprintf("%.1f%%", stats.ConversionRate*100)},
	})
	summary.Render()
}

// leadScore pairs the exported score with the current model's score.
type leadScore struct {
	lead     leaddomain.Lead
	exported int
	model    int
}

func loadLeads(r io.Reader) ([]leaddomain.Lead, exports.ImportResult) {
	leads := make([]leaddomain.Lead, 0)
	result := exports.ImportCSV(r, func(row exports.Row) error {
		lead := leaddomain.Lead{
			FirstName:   row.Get("first_name"),
			LastName:    row.Get("last_name"),
			CompanyName: row.Get("company_name"),
			CompanySize: row.Get("company_size"),
			BudgetRange: row.Get("budget_range"),
			Timeline:    row.Get("timeline"),
			Status:      leaddomain.Status(row.Get("status")),
		}
		if row.Has("lead_score") {
			score, err := strconv.Atoi(row.Get("lead_score"))
			if err != nil {
				return fmt.Errorf("invalid lead_score %q", row.Get("lead_score"))
			}
			lead.LeadScore = score
		}
		leads = append(leads, lead)
		return nil
	})
	return leads, result
}

// rankLeads scores every lead as of asOf and orders them best first.
// Exports carry no last-contact date, so recency never contributes.
func rankLeads(leads []leaddomain.Lead, asOf time.Time) []leadScore {
	ranked := make([]leadScore, 0, len(leads))
	for _, l := range leads {
		ranked = append(ranked, leadScore{
			lead:     l,
			exported: l.LeadScore,
			model:    leaddomain.RecalculateScore(l, asOf).Score,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].model != ranked[j].model {
			return ranked[i].model > ranked[j].model
		}
		return ranked[i].lead.FullName() < ranked[j].lead.FullName()
	})
	return ranked
}

func renderLeadScores(w io.Writer, ranked []leadScore, top int) {
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Lead scores")
	t.AppendHeader(table.Row{"#", "Lead", "Company", "Status", "Exported", "Model", "Drift"})
	for i, r := range ranked {
		ready := ""
		if r.model >= leaddomain.MinConversionScore {
			ready = " *"
		}
		t.AppendRow(table.Row{
			i + 1,
			r.lead.FullName() + ready,
			r.lead.CompanyName,
			string(r.lead.Status),
			r.exported,
			r.model,
			fmt.Sprintf("%+d", r.model-r.exported),
		})
	}
	t.AppendFooter(table.Row{"", "* ready for conversion", "", "", "", "", ""})
	t.Render()
}

func renderImportErrors(w io.Writer, result exports.ImportResult) {
	if len(result.Errors) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Skipped %d line(s)", len(result.Errors)))
	for _, e := range result.Errors {
		t.AppendRow(table.Row{e})
	}
	t.Render()
}
