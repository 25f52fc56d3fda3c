package email

import "context"

// Sender delivers the pipeline's transactional emails.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail, assigneeName, leadName, leadURL string) error
	SendFollowUpDueEmail(ctx context.Context, toEmail, assigneeName, leadName, dueAt, leadURL string) error
	SendDealWonEmail(ctx context.Context, toEmail, ownerName, dealTitle, value, dealURL string) error
	SendContractDecisionEmail(ctx context.Context, toEmail, ownerName, contractNumber, decision, comments, contractURL string) error
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(context.Context, string, string, string, string) error {
	return nil
}

func (NoopSender) SendFollowUpDueEmail(context.Context, string, string, string, string, string) error {
	return nil
}

func (NoopSender) SendDealWonEmail(context.Context, string, string, string, string, string) error {
	return nil
}

func (NoopSender) SendContractDecisionEmail(context.Context, string, string, string, string, string, string) error {
	return nil
}
