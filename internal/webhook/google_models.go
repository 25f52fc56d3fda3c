package webhook

// Google Lead Form webhook payload structures based on:
// https://developers.google.com/google-ads/webhook/docs/implementation

// GoogleLeadPayload represents the webhook payload from Google Ads Lead Forms.
type GoogleLeadPayload struct {
	GoogleKey      string             `json:"google_key"` // Authentication key
	LeadID         string             `json:"lead_id"`    // Unique lead identifier
	CampaignID     int64              `json:"campaign_id"`
	FormID         int64              `json:"form_id"`
	GCLID          string             `json:"gclid"`
	UserColumnData []GoogleColumnData `json:"user_column_data"`
	IsTest         bool               `json:"is_test"`
	APIVersion     string             `json:"api_version"`
	CampaignName   string             `json:"campaign_name"` // optional
	FormName       string             `json:"form_name"`     // optional
}

// GoogleColumnData represents a single form field from Google Lead Form.
type GoogleColumnData struct {
	ColumnID    string `json:"column_id"`
	StringValue string `json:"string_value"`
	ColumnName  string `json:"column_name"`
}

// GoogleLeadResult describes the result of processing a Google Lead Form webhook.
type GoogleLeadResult struct {
	LeadID      *string `json:"leadId,omitempty"`
	IsTest      bool    `json:"isTest"`
	IsDuplicate bool    `json:"isDuplicate"`
	Message     string  `json:"message"`
}
