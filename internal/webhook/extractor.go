package webhook

import (
	"regexp"
	"strings"

	leaddomain "pipeline_backend/internal/leads/domain"
)

// ExtractedFields holds the fields extracted from raw form data via best-effort pattern matching.
type ExtractedFields struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	CompanyName string
	JobTitle    string
	Industry    string
	CompanySize string
	BudgetRange string
	Timeline    string
	Message     string
	UTMSource   string
	UTMCampaign string
}

// IsIncomplete returns true if minimum required fields (name + at least one contact method) are missing.
func (e ExtractedFields) IsIncomplete() bool {
	hasName := e.FirstName != "" || e.LastName != "" || e.CompanyName != ""
	hasContact := e.Phone != "" || e.Email != ""
	return !hasName || !hasContact
}

// ExtractFields performs best-effort field extraction from a flat string map of form data.
// It uses label matching to identify common fields across any form.
func ExtractFields(data map[string]string) ExtractedFields {
	var result ExtractedFields

	for key, value := range data {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(key))

		switch {
		case matchesAny(k, firstNamePatterns):
			result.FirstName = value
		case matchesAny(k, lastNamePatterns):
			result.LastName = value
		case matchesAny(k, fullNamePatterns):
			parts := strings.SplitN(value, " ", 2)
			result.FirstName = parts[0]
			if len(parts) > 1 {
				result.LastName = parts[1]
			}
		case matchesAny(k, emailPatterns):
			if emailRegex.MatchString(value) {
				result.Email = value
			}
		case matchesAny(k, phonePatterns):
			result.Phone = value
		case matchesAny(k, companyPatterns):
			result.CompanyName = value
		case matchesAny(k, jobTitlePatterns):
			result.JobTitle = value
		case matchesAny(k, industryPatterns):
			result.Industry = value
		case matchesAny(k, companySizePatterns):
			result.CompanySize = matchKnown(value, companySizes)
		case matchesAny(k, budgetPatterns):
			result.BudgetRange = matchKnown(value, budgetRanges)
		case matchesAny(k, timelinePatterns):
			result.Timeline = matchKnown(value, timelines)
		case matchesAny(k, messagePatterns):
			result.Message = value
		case matchesAny(k, utmSourcePatterns):
			result.UTMSource = value
		case matchesAny(k, utmCampaignPatterns):
			result.UTMCampaign = value
		}
	}

	// If we got a full name but no separate first/last, and first name looks like "first last"
	if result.FirstName != "" && result.LastName == "" && strings.Contains(result.FirstName, " ") {
		parts := strings.SplitN(result.FirstName, " ", 2)
		result.FirstName = parts[0]
		result.LastName = parts[1]
	}

	return result
}

// Field label patterns
var (
	firstNamePatterns   = []string{"first_name", "firstname", "first name", "given_name", "givenname", "fname"}
	lastNamePatterns    = []string{"last_name", "lastname", "last name", "family_name", "familyname", "surname", "lname"}
	fullNamePatterns    = []string{"name", "full_name", "fullname", "your_name", "your name", "contact_name"}
	emailPatterns       = []string{"email", "e-mail", "e_mail", "emailaddress", "email_address", "mail", "work_email"}
	phonePatterns       = []string{"phone", "tel", "telephone", "phonenumber", "phone_number", "mobile", "work_phone"}
	companyPatterns     = []string{"company", "company_name", "companyname", "organization", "organisation", "business", "business_name"}
	jobTitlePatterns    = []string{"job_title", "jobtitle", "title", "role", "position"}
	industryPatterns    = []string{"industry", "sector", "vertical"}
	companySizePatterns = []string{"company_size", "companysize", "employees", "team_size", "headcount"}
	budgetPatterns      = []string{"budget", "budget_range", "budgetrange"}
	timelinePatterns    = []string{"timeline", "timeframe", "time_frame", "when", "purchase_timeline"}
	messagePatterns     = []string{"message", "comment", "comments", "notes", "description", "question", "inquiry", "enquiry"}
	utmSourcePatterns   = []string{"utm_source", "utmsource"}
	utmCampaignPatterns = []string{"utm_campaign", "utmcampaign", "campaign"}
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	companySizes = []string{
		leaddomain.CompanySize1to10, leaddomain.CompanySize11to50, leaddomain.CompanySize51to200,
		leaddomain.CompanySize201to500, leaddomain.CompanySize501to1000, leaddomain.CompanySize1000Plus,
	}
	budgetRanges = []string{
		leaddomain.BudgetUnder10k, leaddomain.Budget10kTo50k, leaddomain.Budget50kTo100k,
		leaddomain.Budget100kTo500k, leaddomain.Budget500kPlus,
	}
	timelines = []string{
		leaddomain.TimelineImmediate, leaddomain.Timeline1to3Months, leaddomain.Timeline3to6Months,
		leaddomain.Timeline6to12Months, leaddomain.Timeline12Plus,
	}
)

func matchesAny(label string, patterns []string) bool {
	// Normalize: strip spaces, dashes, underscores for fuzzy matching
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(label)
	for _, p := range patterns {
		pNormalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(p)
		if normalized == pNormalized {
			return true
		}
	}
	return false
}

// matchKnown returns the canonical option equal to value ignoring case and
// spacing, or "" so unrecognised answers never reach lead scoring.
func matchKnown(value string, options []string) string {
	squash := strings.NewReplacer(" ", "", "_", "").Replace
	v := squash(strings.ToLower(value))
	for _, opt := range options {
		if squash(opt) == v {
			return opt
		}
	}
	return ""
}
