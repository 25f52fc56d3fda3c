package webhook

import (
	"strconv"
	"strings"
)

// googleColumnKeys maps Google's predefined column ids onto extractor labels.
var googleColumnKeys = map[string]string{
	"FULL_NAME":    "full_name",
	"FIRST_NAME":   "first_name",
	"LAST_NAME":    "last_name",
	"EMAIL":        "email",
	"WORK_EMAIL":   "work_email",
	"PHONE_NUMBER": "phone",
	"WORK_PHONE":   "work_phone",
	"COMPANY_NAME": "company_name",
	"JOB_TITLE":    "job_title",
}

// ExtractGoogleLeadFields maps Google Lead Form data into a flat map for generic extraction.
func ExtractGoogleLeadFields(payload GoogleLeadPayload) map[string]string {
	fields := make(map[string]string)

	for _, col := range payload.UserColumnData {
		if col.StringValue == "" {
			continue
		}
		key, ok := googleColumnKeys[strings.ToUpper(col.ColumnID)]
		if !ok {
			key = normalizeGoogleFieldName(col.ColumnName)
		}
		if key != "" {
			fields[key] = col.StringValue
		}
	}

	if _, ok := fields["utm_source"]; !ok {
		fields["utm_source"] = googleLeadSource
	}
	if payload.CampaignName != "" {
		fields["utm_campaign"] = payload.CampaignName
	} else if payload.CampaignID != 0 {
		fields["utm_campaign"] = strconv.FormatInt(payload.CampaignID, 10)
	}

	return fields
}

// normalizeGoogleFieldName maps custom question labels to our internal field keys.
func normalizeGoogleFieldName(columnName string) string {
	label := strings.ToLower(strings.TrimSpace(columnName))

	switch {
	case containsAny(label, "budget"):
		return "budget"
	case containsAny(label, "employees", "company size", "team size"):
		return "company_size"
	case containsAny(label, "timeline", "timeframe", "when"):
		return "timeline"
	case containsAny(label, "industry", "sector"):
		return "industry"
	case containsAny(label, "message", "comment", "question"):
		return "message"
	default:
		return strings.TrimSpace(columnName)
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
