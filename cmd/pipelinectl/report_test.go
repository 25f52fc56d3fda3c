package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const dealsCSV = "\"ID\",\"Title\",\"Value\",\"Stage\",\"Status\",\"Probability\"\r\n" +
	"\"\",\"Fleet renewal\",\"1000.00\",\"lead\",\"open\",\"10\"\r\n" +
	"\"\",\"Warehouse\",\"2500.00\",\"closed_won\",\"won\",\"100\"\r\n" +
	"\"\",\"Broken\",\"10\",\"pitch\",\"open\",\"\""

const leadsCSV = "\"First Name\",\"Last Name\",\"Company Name\",\"Company Size\",\"Budget Range\",\"Timeline\",\"Lead Score\",\"Status\"\r\n" +
	"\"Bo\",\"Small\",\"Tiny BV\",\"1-10\",\"<10k\",\"12+ months\",\"30\",\"new\"\r\n" +
	"\"Ada\",\"Lovelace\",\"Engines Ltd\",\"51-200\",\"50k-100k\",\"immediate\",\"40\",\"qualified\"\r\n" +
	"\"Cy\",\"Bad\",\"X\",\"\",\"\",\"\",\"many\",\"new\""

func TestLoadDealsReportsBadLines(t *testing.T) {
	deals, result := loadDeals(strings.NewReader(dealsCSV))
	if len(deals) != 2 || result.Success != 2 {
		t.Fatalf("expected 2 deals, got %d (success %d)", len(deals), result.Success)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "line 4: ") {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
}

func TestRenderDealStats(t *testing.T) {
	deals, _ := loadDeals(strings.NewReader(dealsCSV))
	var out bytes.Buffer
	renderDealStats(&out, deals)

	for _, want := range []string{"closed_won", "3500.00", "100.00", "100.0%"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestRankLeadsOrdersByModelScore(t *testing.T) {
	leads, result := loadLeads(strings.NewReader(leadsCSV))
	if len(result.Errors) != 1 {
		t.Fatalf("expected the unparsable score to be reported, got %v", result.Errors)
	}

	ranked := rankLeads(leads, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked leads, got %d", len(ranked))
	}
	if ranked[0].lead.FirstName != "Ada" || ranked[0].model != 58 {
		t.Fatalf("unexpected leader %+v", ranked[0])
	}
	if ranked[1].model != 12 || ranked[1].exported != 30 {
		t.Fatalf("unexpected runner-up %+v", ranked[1])
	}
}

func TestRenderLeadScoresHonoursTop(t *testing.T) {
	leads, _ := loadLeads(strings.NewReader(leadsCSV))
	var out bytes.Buffer
	renderLeadScores(&out, rankLeads(leads, time.Now()), 1)

	if !strings.Contains(out.String(), "Ada Lovelace *") {
		t.Fatalf("expected the ready lead to be marked:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Bo Small") {
		t.Fatalf("expected only the top lead:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "+18") {
		t.Fatalf("expected score drift:\n%s", out.String())
	}
}

func TestRunRejectsUnknownReport(t *testing.T) {
	if err := run([]string{"forecast", "x.csv"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected an error")
	}
	if err := run(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected a usage error")
	}
}

func TestRunDealsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.csv")
	if err := os.WriteFile(path, []byte(dealsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run([]string{"deals", path}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "line 4:") {
		t.Fatalf("expected skipped line report:\n%s", out.String())
	}
}
