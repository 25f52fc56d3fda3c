// Package pdf renders deal proposals with maroto/v2: a header, the customer
// block, the product lines with per-line discount and tax, totals and the
// terms footer.
package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pipeline_backend/internal/deals/domain"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent    = &props.Color{Red: 37, Green: 99, Blue: 235}   // blue-600
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorTableAlt  = &props.Color{Red: 249, Green: 250, Blue: 251} // gray-50
	colorGreen     = &props.Color{Red: 22, Green: 163, Blue: 74}   // green-600
	colorRed       = &props.Color{Red: 220, Green: 38, Blue: 38}   // red-600
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
)

// ProposalData holds everything printed on a proposal.
type ProposalData struct {
	Deal             domain.Deal
	CustomerName     string
	OrganizationName string
	GeneratedAt      time.Time
}

// Totals is the money summary of a proposal.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the lines. Total is the sum of the clamped line totals,
// so it equals the deal value whenever the deal has items.
func ComputeTotals(items []domain.SaleItem) Totals {
	t := Totals{Subtotal: decimal.Zero, Discount: decimal.Zero, Tax: decimal.Zero}
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		t.Discount = t.Discount.Add(item.Discount)
		t.Tax = t.Tax.Add(item.Tax)
	}
	t.Total = domain.TotalValue(items)
	return t
}

// GenerateProposalPDF creates the proposal document for a deal.
func GenerateProposalPDF(data ProposalData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter(data)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(data)...)
	m.AddRows(separator())
	m.AddRows(row.New(6))

	m.AddRows(buildAddressBlock(data)...)
	m.AddRows(row.New(6))

	if banner, ok := buildStatusBanner(data.Deal); ok {
		m.AddRows(banner, row.New(4))
	}

	if len(data.Deal.Items) > 0 {
		m.AddRows(buildItemsTable(data.Deal.Items)...)
		m.AddRows(row.New(4))
		m.AddRows(buildTotalsBlock(ComputeTotals(data.Deal.Items))...)
	} else {
		m.AddRows(buildValueBlock(data.Deal.Value)...)
	}

	if strings.TrimSpace(data.Deal.Description) != "" {
		m.AddRows(row.New(6))
		m.AddRows(buildNotesBlock(data.Deal.Description)...)
	}

	m.AddRows(row.New(8))
	m.AddRows(buildTerms(data.Deal)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func separator() core.Row {
	return row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	})
}

func buildHeader(data ProposalData) []core.Row {
	nameCol := col.New(4).Add(
		text.New(data.OrganizationName, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Color: colorPrimary,
			Top:   4,
		}),
	)
	titleCol := col.New(8).Add(
		text.New("PROPOSAL", props.Text{
			Size:  24,
			Style: fontstyle.Bold,
			Align: align.Right,
			Color: colorAccent,
		}),
		text.New(data.Deal.Title, props.Text{
			Size:  11,
			Align: align.Right,
			Color: colorSecondary,
			Top:   12,
		}),
	)
	return []core.Row{row.New(20).Add(nameCol, titleCol)}
}

func buildAddressBlock(data ProposalData) []core.Row {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}
	meta := props.Text{Size: 8, Color: colorSecondary, Align: align.Right}

	closeStr := ""
	if data.Deal.ExpectedCloseDate != nil {
		closeStr = "Expected close: " + data.Deal.ExpectedCloseDate.Format("2006-01-02")
	}

	return []core.Row{
		row.New(5).Add(
			col.New(6).Add(text.New("PREPARED FOR", label)),
			col.New(6).Add(text.New("DETAILS", props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent, Align: align.Right})),
		),
		row.New(5).Add(
			col.New(6).Add(text.New(data.CustomerName, props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary})),
			col.New(6).Add(text.New("Date: "+data.GeneratedAt.Format("2006-01-02"), meta)),
		),
		row.New(5).Add(
			col.New(6),
			col.New(6).Add(text.New(closeStr, meta)),
		),
		row.New(5).Add(
			col.New(6),
			col.New(6).Add(text.New("Stage: "+stageLabel(data.Deal.Stage), props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: statusColor(data.Deal.Status),
				Align: align.Right,
			})),
		),
	}
}

func buildStatusBanner(deal domain.Deal) (core.Row, bool) {
	var label string
	var color, background *props.Color
	switch deal.Status {
	case domain.StatusWon:
		label = "Accepted"
		color, background = colorGreen, &props.Color{Red: 220, Green: 252, Blue: 231}
	case domain.StatusLost, domain.StatusCancelled:
		label = "Closed without agreement"
		color, background = colorRed, &props.Color{Red: 254, Green: 226, Blue: 226}
	default:
		return nil, false
	}
	if deal.ActualCloseDate != nil {
		label += " on " + deal.ActualCloseDate.Format("2006-01-02")
	}
	return row.New(8).Add(
		col.New(12).Add(text.New(label, props.Text{
			Size:  9,
			Style: fontstyle.Bold,
			Color: color,
			Top:   2,
		})),
	).WithStyle(&props.Cell{BackgroundColor: background}), true
}

func buildItemsTable(items []domain.SaleItem) []core.Row {
	rows := []core.Row{
		row.New(7).Add(
			col.New(12).Add(text.New("PRODUCTS", props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
		),
	}

	headerStyle := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headerStyleRight := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 1.5}

	rows = append(rows, row.New(7).Add(
		col.New(4).Add(text.New("Product", headerStyle)),
		col.New(1).Add(text.New("Qty", headerStyleRight)),
		col.New(2).Add(text.New("Unit price", headerStyleRight)),
		col.New(2).Add(text.New("Discount", headerStyleRight)),
		col.New(1).Add(text.New("Tax", headerStyleRight)),
		col.New(2).Add(text.New("Amount", headerStyleRight)),
	).WithStyle(&props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Bottom,
		BorderColor:     colorBorder,
	}))

	for i, item := range items {
		rows = append(rows, buildItemRow(item, i))
	}
	return rows
}

func buildItemRow(item domain.SaleItem, idx int) core.Row {
	normal := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	right := props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1}

	discount := ""
	if item.Discount.IsPositive() {
		discount = "-" + formatMoney(item.Discount)
	}

	r := row.New(7).Add(
		col.New(4).Add(text.New(item.ProductName, normal)),
		col.New(1).Add(text.New(strconv.Itoa(item.Quantity), right)),
		col.New(2).Add(text.New(formatMoney(item.UnitPrice), right)),
		col.New(2).Add(text.New(discount, right)),
		col.New(1).Add(text.New(formatMoney(item.Tax), right)),
		col.New(2).Add(text.New(formatMoney(item.LineTotal), right)),
	)
	if idx%2 == 0 {
		r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
	}
	return r
}

func buildTotalsBlock(t Totals) []core.Row {
	labelStyle := props.Text{Size: 9, Color: colorSecondary, Align: align.Right}
	valueStyle := props.Text{Size: 9, Color: colorPrimary, Align: align.Right}

	rows := []core.Row{separator(), row.New(3)}
	rows = append(rows, row.New(6).Add(
		col.New(9).Add(text.New("Subtotal", labelStyle)),
		col.New(3).Add(text.New(formatMoney(t.Subtotal), valueStyle)),
	))
	if t.Discount.IsPositive() {
		rows = append(rows, row.New(6).Add(
			col.New(9).Add(text.New("Discount", labelStyle)),
			col.New(3).Add(text.New("-"+formatMoney(t.Discount), props.Text{Size: 9, Color: colorGreen, Align: align.Right})),
		))
	}
	if t.Tax.IsPositive() {
		rows = append(rows, row.New(6).Add(
			col.New(9).Add(text.New("Tax", labelStyle)),
			col.New(3).Add(text.New(formatMoney(t.Tax), valueStyle)),
		))
	}
	rows = append(rows, row.New(2), totalRow(t.Total))
	return rows
}

func buildValueBlock(value decimal.Decimal) []core.Row {
	return []core.Row{separator(), row.New(3), totalRow(value)}
}

func totalRow(total decimal.Decimal) core.Row {
	style := props.Text{
		Size:  12,
		Style: fontstyle.Bold,
		Color: colorPrimary,
		Align: align.Right,
		Top:   2,
	}
	return row.New(10).Add(
		col.New(9).Add(text.New("TOTAL", style)),
		col.New(3).Add(text.New(formatMoney(total), style)),
	).WithStyle(&props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Top | border.Bottom,
		BorderColor:     colorBorder,
	})
}

func buildNotesBlock(notes string) []core.Row {
	return []core.Row{
		row.New(5).Add(
			col.New(12).Add(text.New("SCOPE", props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
		),
		row.New(12).Add(
			col.New(12).Add(text.New(notes, props.Text{
				Size:  8,
				Color: colorSecondary,
				Top:   1,
			})),
		),
	}
}

func buildTerms(deal domain.Deal) []core.Row {
	small := props.Text{Size: 7, Color: colorSecondary}
	terms := []string{
		"1.  This proposal is non-binding until a contract is signed by both parties.",
		"2.  Prices are in the currency of the agreement and exclude costs not listed above.",
	}
	if deal.ExpectedCloseDate != nil {
		terms = append(terms, "3.  Pricing is held until "+deal.ExpectedCloseDate.Format("2006-01-02")+".")
	}

	rows := []core.Row{
		separator(),
		row.New(3),
		row.New(5).Add(col.New(12).Add(text.New("TERMS", props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}))),
	}
	for _, t := range terms {
		rows = append(rows, row.New(4).Add(col.New(12).Add(text.New(t, small))))
	}
	return rows
}

func buildFooter(data ProposalData) core.Row {
	parts := []string{data.OrganizationName, data.Deal.Title, "Ref " + data.Deal.ID.String()[:8]}
	return row.New(10).Add(
		col.New(12).Add(
			text.New(joinParts(parts, "  ·  "), props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

func statusColor(status domain.Status) *props.Color {
	switch status {
	case domain.StatusWon:
		return colorGreen
	case domain.StatusLost, domain.StatusCancelled:
		return colorRed
	default:
		return colorAccent
	}
}

func stageLabel(stage domain.Stage) string {
	words := strings.Split(string(stage), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func joinParts(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
