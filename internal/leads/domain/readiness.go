package domain

import (
	"fmt"
	"strings"
)

// MinConversionScore is the lowest score at which a lead counts as ready.
const MinConversionScore = 40

// Readiness lists every reason a lead is not ready to convert.
type Readiness struct {
	Ready  bool     `json:"ready"`
	Issues []string `json:"issues"`
}

// CheckConversionReadiness collects all blocking issues instead of stopping at the first.
func CheckConversionReadiness(lead Lead) Readiness {
	issues := make([]string, 0)

	if lead.ConvertedToCustomer || lead.Status == StatusConverted {
		issues = append(issues, "lead has already been converted")
	} else if lead.Status != StatusQualified {
		issues = append(issues, fmt.Sprintf("lead status must be qualified, currently %s", lead.Status))
	}
	if !lead.HasContactChannel() {
		issues = append(issues, "lead needs an email address or phone number")
	}
	if strings.TrimSpace(lead.CompanyName) == "" {
		issues = append(issues, "lead needs a company name")
	}
	if lead.LeadScore < MinConversionScore {
		issues = append(issues, fmt.Sprintf("lead score %d is below the minimum of %d", lead.LeadScore, MinConversionScore))
	}

	return Readiness{Ready: len(issues) == 0, Issues: issues}
}
