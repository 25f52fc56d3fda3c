package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"pipeline_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// NewSender returns an SMTP sender when email is configured, otherwise a NoopSender.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendLeadAssignedEmail(ctx context.Context, toEmail, assigneeName, leadName, leadURL string) error {
	content, err := renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:    "New lead assigned",
			Heading:  "A new lead is waiting for you",
			CTALabel: "Open lead",
			CTAURL:   leadURL,
		},
		AssigneeName: assigneeName,
		LeadName:     leadName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadAssignedFmt, leadName), content)
}

func (s *SMTPSender) SendFollowUpDueEmail(ctx context.Context, toEmail, assigneeName, leadName, dueAt, leadURL string) error {
	content, err := renderEmailTemplate("followup_due.html", followUpDueEmailData{
		baseEmailData: baseEmailData{
			Title:    "Follow-up due",
			Heading:  "Time to follow up",
			CTALabel: "Open lead",
			CTAURL:   leadURL,
		},
		AssigneeName: assigneeName,
		LeadName:     leadName,
		DueAt:        dueAt,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectFollowUpDueFmt, leadName), content)
}

func (s *SMTPSender) SendDealWonEmail(ctx context.Context, toEmail, ownerName, dealTitle, value, dealURL string) error {
	content, err := renderEmailTemplate("deal_won.html", dealWonEmailData{
		baseEmailData: baseEmailData{
			Title:    "Deal won",
			Heading:  "Deal won",
			CTALabel: "Convert to contract",
			CTAURL:   dealURL,
		},
		OwnerName: ownerName,
		DealTitle: dealTitle,
		Value:     value,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectDealWonFmt, dealTitle), content)
}

func (s *SMTPSender) SendContractDecisionEmail(ctx context.Context, toEmail, ownerName, contractNumber, decision, comments, contractURL string) error {
	content, err := renderEmailTemplate("contract_decision.html", contractDecisionEmailData{
		baseEmailData: baseEmailData{
			Title:    "Contract " + decision,
			Heading:  "Contract " + decision,
			CTALabel: "Open contract",
			CTAURL:   contractURL,
		},
		OwnerName:      ownerName,
		ContractNumber: contractNumber,
		Decision:       decision,
		Comments:       comments,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectContractFmt, contractNumber, decision), content)
}

var _ Sender = (*SMTPSender)(nil)
