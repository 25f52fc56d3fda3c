package notification

import (
	"context"
	"testing"
	"time"

	"pipeline_backend/internal/events"
	leaddomain "pipeline_backend/internal/leads/domain"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.example.com/" }

type sentEmail struct {
	kind string
	to   string
	subj string
	url  string
}

type testSender struct {
	sent []sentEmail
}

func (s *testSender) SendLeadAssignedEmail(_ context.Context, toEmail, _, leadName, leadURL string) error {
	s.sent = append(s.sent, sentEmail{kind: "assigned", to: toEmail, subj: leadName, url: leadURL})
	return nil
}

func (s *testSender) SendFollowUpDueEmail(_ context.Context, toEmail, _, leadName, dueAt, leadURL string) error {
	s.sent = append(s.sent, sentEmail{kind: "followup", to: toEmail, subj: leadName + " @ " + dueAt, url: leadURL})
	return nil
}

func (s *testSender) SendDealWonEmail(_ context.Context, toEmail, _, dealTitle, _, dealURL string) error {
	s.sent = append(s.sent, sentEmail{kind: "won", to: toEmail, subj: dealTitle, url: dealURL})
	return nil
}

func (s *testSender) SendContractDecisionEmail(_ context.Context, toEmail, _, contractNumber, decision, _, contractURL string) error {
	s.sent = append(s.sent, sentEmail{kind: "contract", to: toEmail, subj: contractNumber + " " + decision, url: contractURL})
	return nil
}

type roster map[uuid.UUID]leaddomain.Assignee

func (r roster) Lookup(id uuid.UUID) (leaddomain.Assignee, bool) {
	a, ok := r[id]
	return a, ok
}

var (
	samID   = uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001")
	robinID = uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000002")
)

func newTestModule(sender *testSender) *Module {
	return New(sender, testNotificationConfig{}, roster{
		samID:   {ID: samID, Name: "Sam", Email: "sam@example.com", Active: true},
		robinID: {ID: robinID, Name: "Robin", Active: true},
	}, logger.New("development"))
}

func TestLeadAssignedEmailsTheAssignee(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	leadID := uuid.New()

	err := m.Handle(context.Background(), events.LeadAssigned{LeadID: leadID, TenantID: uuid.New(), AssigneeID: samID, LeadName: "Acme"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.to != "sam@example.com" || got.url != "https://app.example.com/app/leads/"+leadID.String() {
		t.Fatalf("unexpected email %+v", got)
	}
}

func TestAssigneeWithoutEmailIsSkipped(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	if err := m.Handle(context.Background(), events.LeadAssigned{LeadID: uuid.New(), AssigneeID: robinID}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := m.Handle(context.Background(), events.LeadAssigned{LeadID: uuid.New(), AssigneeID: uuid.New()}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(sender.sent))
	}
}

func TestFollowUpDueFormatsTheDueTime(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	owner := samID

	err := m.Handle(context.Background(), events.LeadFollowUpDue{
		LeadID:      uuid.New(),
		LeadName:    "Ada Lovelace",
		AssignedTo:  &owner,
		ScheduledAt: time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].subj != "Ada Lovelace @ 20 Oct 2026 09:00 UTC" {
		t.Fatalf("unexpected emails %+v", sender.sent)
	}
}

func TestOnlyWonDealsSendEmail(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	owner := samID

	for _, stage := range []string{"negotiation", "closed_lost", "closed_won"} {
		err := m.Handle(context.Background(), events.DealStageChanged{
			DealID: uuid.New(), TenantID: uuid.New(), Title: "Fleet renewal", NewStage: stage, AssignedTo: &owner,
		})
		if err != nil {
			t.Fatalf("handle %s: %v", stage, err)
		}
	}
	if len(sender.sent) != 1 || sender.sent[0].kind != "won" {
		t.Fatalf("expected a single won email, got %+v", sender.sent)
	}
}

func TestContractDecisionSkipsPending(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	owner := samID

	for _, status := range []string{"pending", "approved"} {
		err := m.Handle(context.Background(), events.ContractApprovalRecorded{
			ContractID: uuid.New(), ContractNumber: "CT-000007", Status: status, AssignedTo: &owner,
		})
		if err != nil {
			t.Fatalf("handle %s: %v", status, err)
		}
	}
	if len(sender.sent) != 1 || sender.sent[0].subj != "CT-000007 approved" {
		t.Fatalf("unexpected emails %+v", sender.sent)
	}
}

func TestNilSenderFallsBackToNoop(t *testing.T) {
	m := New(nil, testNotificationConfig{}, nil, logger.New("development"))
	owner := samID
	err := m.Handle(context.Background(), events.DealStageChanged{NewStage: "closed_won", AssignedTo: &owner})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
}
