// Command pipelinectl summarizes CSV exports offline.
//
//	pipelinectl deals deals.csv
//	pipelinectl leads [-top 20] [-as-of 2026-10-01] leads.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "pipelinectl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pipelinectl deals|leads [flags] <file.csv>")
	}

	switch args[0] {
	case "deals":
		fs := flag.NewFlagSet("deals", flag.ContinueOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		f, err := openExport(fs)
		if err != nil {
			return err
		}
		defer f.Close()

		deals, result := loadDeals(f)
		renderDealStats(out, deals)
		renderImportErrors(out, result)
		return nil

	case "leads":
		fs := flag.NewFlagSet("leads", flag.ContinueOnError)
		top := fs.Int("top", 0, "show only the N best leads")
		asOf := fs.String("as-of", "", "score as of this date (YYYY-MM-DD), default today")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		at := time.Now().UTC()
		if *asOf != "" {
			parsed, err := time.Parse("2006-01-02", *asOf)
			if err != nil {
				return fmt.Errorf("invalid -as-of %q", *asOf)
			}
			at = parsed
		}
		f, err := openExport(fs)
		if err != nil {
			return err
		}
		defer f.Close()

		leads, result := loadLeads(f)
		renderLeadScores(out, rankLeads(leads, at), *top)
		renderImportErrors(out, result)
		return nil

	default:
		return fmt.Errorf("unknown report %q", args[0])
	}
}

func openExport(fs *flag.FlagSet) (*os.File, error) {
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one CSV file")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	return f, nil
}
