package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pipeline_backend/internal/events"
	"pipeline_backend/internal/leads/domain"
	"pipeline_backend/internal/leads/repository"
	"pipeline_backend/internal/leads/transport"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventName()
	}
	return out
}

type fakeCustomers struct {
	existing  map[uuid.UUID]bool
	created   []CustomerDraft
	discarded []uuid.UUID
}

func (f *fakeCustomers) CustomerExists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	return f.existing[id], nil
}

func (f *fakeCustomers) CreateCustomer(_ context.Context, _ uuid.UUID, draft CustomerDraft) (uuid.UUID, error) {
	f.created = append(f.created, draft)
	return uuid.New(), nil
}

func (f *fakeCustomers) DiscardCustomer(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	f.discarded = append(f.discarded, id)
	return nil
}

// live counts customers created and not discarded.
func (f *fakeCustomers) live() int {
	return len(f.created) - len(f.discarded)
}

type fakeDeals struct {
	drafts    []DealDraft
	opened    []uuid.UUID
	discarded []uuid.UUID
	err       error
}

func (f *fakeDeals) OpenDealFromLead(_ context.Context, _ uuid.UUID, draft DealDraft) (uuid.UUID, error) {
	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return uuid.Nil, f.err
	}
	id := uuid.New()
	f.opened = append(f.opened, id)
	return id, nil
}

func (f *fakeDeals) DiscardDeal(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	f.discarded = append(f.discarded, id)
	return nil
}

// failingUpdates lets reads and creates through and fails every update.
type failingUpdates struct {
	repository.Repository
}

func (failingUpdates) Update(context.Context, domain.Lead) (domain.Lead, error) {
	return domain.Lead{}, errors.New("lead store unavailable")
}

type fakeScheduler struct {
	runAt []time.Time
}

func (f *fakeScheduler) ScheduleLeadFollowUp(_ context.Context, _, _ uuid.UUID, runAt time.Time) error {
	f.runAt = append(f.runAt, runAt)
	return nil
}

type staticAssignees struct {
	rules []domain.AssignmentRule
	pool  []domain.Assignee
}

func (s staticAssignees) Rules() []domain.AssignmentRule { return s.rules }

func (s staticAssignees) Pool(context.Context, uuid.UUID) ([]domain.Assignee, error) {
	out := make([]domain.Assignee, len(s.pool))
	copy(out, s.pool)
	return out, nil
}

func (s staticAssignees) Lookup(id uuid.UUID) (domain.Assignee, bool) {
	for _, a := range s.pool {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Assignee{}, false
}

func newTestService() (*Service, *recordingBus, repository.Repository) {
	repo := repository.NewMemory()
	bus := &recordingBus{}
	svc := New(repo, bus, nil, logger.New("test"))
	svc.SetClock(func() time.Time { return testNow })
	return svc, bus, repo
}

func createQualifiedLead(t *testing.T, svc *Service, tenantID uuid.UUID) domain.Lead {
	t.Helper()
	ctx := context.Background()
	lead, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ADA@example.com",
		CompanyName: "Analytical Engines",
		CompanySize: domain.CompanySize201to500,
		BudgetRange: domain.Budget100kTo500k,
		Timeline:    domain.TimelineImmediate,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, status := range []string{"contacted", "qualified"} {
		if lead, err = svc.TransitionStatus(ctx, tenantID, lead.ID, transport.TransitionStatusRequest{Status: status}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
	if _, err := svc.RecalculateScore(ctx, tenantID, lead.ID); err != nil {
		t.Fatalf("score: %v", err)
	}
	lead, err = svc.Get(ctx, tenantID, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return lead
}

func TestCreateNormalizesInput(t *testing.T) {
	svc, bus, _ := newTestService()
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{
		FirstName: "  Grace ",
		Email:     " Grace@Example.COM ",
		Phone:     "06 12345678",
		Notes:     "<b>call</b> after lunch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.FirstName != "Grace" || lead.Email != "grace@example.com" {
		t.Fatalf("unexpected normalization: %+v", lead)
	}
	if lead.Phone != "+31612345678" {
		t.Fatalf("expected E.164 phone, got %q", lead.Phone)
	}
	if lead.Notes != "call after lunch" {
		t.Fatalf("expected sanitized notes, got %q", lead.Notes)
	}
	if lead.Status != domain.StatusNew || lead.Stage != domain.StageAwareness || lead.LeadScore != 0 {
		t.Fatalf("unexpected initial lifecycle: %+v", lead)
	}
	if names := bus.names(); len(names) != 1 || names[0] != "leads.lead.created" {
		t.Fatalf("expected lead created event, got %v", names)
	}
}

func TestCreateRequiresAName(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateLeadRequest{Email: "x@example.com"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionStatusRejectsIllegalMove(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	_, err := svc.TransitionStatus(context.Background(), tenantID, lead.ID, transport.TransitionStatusRequest{Status: "qualified"})
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	stored, _ := svc.Get(context.Background(), tenantID, lead.ID)
	if stored.Status != domain.StatusNew {
		t.Fatalf("status must be unchanged, got %s", stored.Status)
	}
}

func TestTransitionToConvertedChecksCustomer(t *testing.T) {
	svc, _, _ := newTestService()
	customers := &fakeCustomers{existing: map[uuid.UUID]bool{}}
	svc.SetCustomerProvisioner(customers)
	tenantID := uuid.New()
	lead := createQualifiedLead(t, svc, tenantID)

	unknown := uuid.New()
	_, err := svc.TransitionStatus(context.Background(), tenantID, lead.ID, transport.TransitionStatusRequest{Status: "converted", CustomerID: &unknown})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown customer, got %v", err)
	}

	customers.existing[unknown] = true
	converted, err := svc.TransitionStatus(context.Background(), tenantID, lead.ID, transport.TransitionStatusRequest{Status: "converted", CustomerID: &unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !converted.ConvertedToCustomer || converted.ConvertedAt == nil || *converted.ConvertedCustomerID != unknown {
		t.Fatalf("conversion fields not stamped: %+v", converted)
	}
}

func TestAdvanceStageForwardOnly(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	moved, err := svc.AdvanceStage(context.Background(), tenantID, lead.ID, transport.AdvanceStageRequest{Stage: "intent"})
	if err != nil || moved.Stage != domain.StageIntent {
		t.Fatalf("expected intent, got %v %v", moved.Stage, err)
	}
	_, err = svc.AdvanceStage(context.Background(), tenantID, lead.ID, transport.AdvanceStageRequest{Stage: "interest"})
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	_, err = svc.AdvanceStage(context.Background(), tenantID, lead.ID, transport.AdvanceStageRequest{Stage: "bogus"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetScoreRejectsOutOfRange(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	for _, score := range []int{-1, 101} {
		if _, err := svc.SetScore(context.Background(), tenantID, lead.ID, score); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("score %d: expected validation error, got %v", score, err)
		}
	}
	updated, err := svc.SetScore(context.Background(), tenantID, lead.ID, 100)
	if err != nil || updated.LeadScore != 100 {
		t.Fatalf("expected score 100, got %d %v", updated.LeadScore, err)
	}
}

func TestRecalculateScorePersists(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	lead := createQualifiedLead(t, svc, tenantID)

	// 20 size + 25 budget + 25 timeline + 20 recency (contacted at testNow)
	if lead.LeadScore != 90 {
		t.Fatalf("expected score 90, got %d", lead.LeadScore)
	}
}

func TestAssignAutomatic(t *testing.T) {
	svc, bus, _ := newTestService()
	busy := domain.Assignee{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Name: "Busy", Active: true, OpenLeads: 5}
	free := domain.Assignee{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Name: "Free", Active: true}
	svc.SetAssigneeSource(staticAssignees{pool: []domain.Assignee{busy, free}})

	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	res, err := svc.Assign(context.Background(), tenantID, lead.ID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AssigneeID != free.ID || !res.Automatic {
		t.Fatalf("expected automatic assignment to %s, got %+v", free.ID, res)
	}
	names := bus.names()
	if names[len(names)-1] != "leads.lead.assigned" {
		t.Fatalf("expected assigned event, got %v", names)
	}
}

func TestAssignWithoutRulesFails(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	_, err := svc.Assign(context.Background(), tenantID, lead.ID, nil)
	if !apperr.Is(err, apperr.KindAssignment) {
		t.Fatalf("expected assignment error, got %v", err)
	}
}

func TestScheduleFollowUp(t *testing.T) {
	svc, _, _ := newTestService()
	sched := &fakeScheduler{}
	svc.SetFollowUpScheduler(sched)
	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	if _, err := svc.ScheduleFollowUp(context.Background(), tenantID, lead.ID, testNow.Add(-time.Hour)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for past follow-up, got %v", err)
	}

	at := testNow.Add(48 * time.Hour)
	updated, err := svc.ScheduleFollowUp(context.Background(), tenantID, lead.ID, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.NextFollowUp == nil || !updated.NextFollowUp.Equal(at) {
		t.Fatalf("next follow-up not set: %+v", updated.NextFollowUp)
	}
	if len(sched.runAt) != 1 || !sched.runAt[0].Equal(at) {
		t.Fatalf("expected one reminder at %v, got %v", at, sched.runAt)
	}
}

func TestConvertLeadCreatesCustomerAndDeal(t *testing.T) {
	svc, bus, _ := newTestService()
	customers := &fakeCustomers{existing: map[uuid.UUID]bool{}}
	deals := &fakeDeals{}
	svc.SetCustomerProvisioner(customers)
	svc.SetDealOpener(deals)
	tenantID := uuid.New()
	lead := createQualifiedLead(t, svc, tenantID)

	res, err := svc.ConvertLead(context.Background(), tenantID, lead.ID, transport.ConvertLeadRequest{CreateDeal: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DealID == nil {
		t.Fatal("expected a deal id")
	}
	if len(customers.created) != 1 || customers.created[0].Name != "Analytical Engines" {
		t.Fatalf("expected customer from company data, got %+v", customers.created)
	}
	if len(deals.drafts) != 1 || deals.drafts[0].CustomerID != res.CustomerID || deals.drafts[0].Title != "Analytical Engines" {
		t.Fatalf("unexpected deal draft: %+v", deals.drafts)
	}

	stored, _ := svc.Get(context.Background(), tenantID, lead.ID)
	if stored.Status != domain.StatusConverted || !stored.ConvertedToCustomer {
		t.Fatalf("lead not converted: %+v", stored)
	}
	names := bus.names()
	if names[len(names)-1] != "leads.lead.converted" {
		t.Fatalf("expected converted event, got %v", names)
	}
}

func TestConvertLeadDiscardsCustomerWhenDealFails(t *testing.T) {
	svc, bus, _ := newTestService()
	customers := &fakeCustomers{existing: map[uuid.UUID]bool{}}
	deals := &fakeDeals{err: errors.New("deal store unavailable")}
	svc.SetCustomerProvisioner(customers)
	svc.SetDealOpener(deals)
	tenantID := uuid.New()
	lead := createQualifiedLead(t, svc, tenantID)
	before := len(bus.names())

	for attempt := 1; attempt <= 2; attempt++ {
		if _, err := svc.ConvertLead(context.Background(), tenantID, lead.ID, transport.ConvertLeadRequest{CreateDeal: true}); err == nil {
			t.Fatalf("attempt %d: expected the deal failure to surface", attempt)
		}
		if got := customers.live(); got != 0 {
			t.Fatalf("attempt %d: %d customers left behind", attempt, got)
		}
	}

	stored, _ := svc.Get(context.Background(), tenantID, lead.ID)
	if stored.Status != domain.StatusQualified || stored.ConvertedCustomerID != nil {
		t.Fatalf("lead should stay qualified, got %+v", stored)
	}
	if len(bus.names()) != before {
		t.Fatalf("no event expected for a failed conversion, got %v", bus.names()[before:])
	}

	deals.err = nil
	res, err := svc.ConvertLead(context.Background(), tenantID, lead.ID, transport.ConvertLeadRequest{CreateDeal: true})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if customers.live() != 1 || res.DealID == nil {
		t.Fatalf("retry should leave one customer and one deal, got customers=%d deal=%v", customers.live(), res.DealID)
	}
}

func TestConvertLeadDiscardsDealWhenSaveFails(t *testing.T) {
	memory := repository.NewMemory()
	svc := New(memory, &recordingBus{}, nil, logger.New("test"))
	svc.SetClock(func() time.Time { return testNow })
	customers := &fakeCustomers{existing: map[uuid.UUID]bool{}}
	deals := &fakeDeals{}
	svc.SetCustomerProvisioner(customers)
	svc.SetDealOpener(deals)
	tenantID := uuid.New()
	lead := createQualifiedLead(t, svc, tenantID)

	broken := New(failingUpdates{memory}, &recordingBus{}, nil, logger.New("test"))
	broken.SetClock(func() time.Time { return testNow })
	broken.SetCustomerProvisioner(customers)
	broken.SetDealOpener(deals)

	if _, err := broken.ConvertLead(context.Background(), tenantID, lead.ID, transport.ConvertLeadRequest{CreateDeal: true}); err == nil {
		t.Fatal("expected the save failure to surface")
	}
	if len(deals.opened) != 1 || len(deals.discarded) != 1 || deals.discarded[0] != deals.opened[0] {
		t.Fatalf("opened deal not discarded: opened=%v discarded=%v", deals.opened, deals.discarded)
	}
	if customers.live() != 0 {
		t.Fatalf("%d customers left behind", customers.live())
	}
}

func TestConvertLeadKeepsExistingCustomerOnFailure(t *testing.T) {
	svc, _, _ := newTestService()
	existing := uuid.New()
	customers := &fakeCustomers{existing: map[uuid.UUID]bool{existing: true}}
	svc.SetCustomerProvisioner(customers)
	svc.SetDealOpener(&fakeDeals{err: errors.New("deal store unavailable")})
	tenantID := uuid.New()
	lead := createQualifiedLead(t, svc, tenantID)

	_, err := svc.ConvertLead(context.Background(), tenantID, lead.ID, transport.ConvertLeadRequest{CustomerID: &existing, CreateDeal: true})
	if err == nil {
		t.Fatal("expected the deal failure to surface")
	}
	if len(customers.discarded) != 0 {
		t.Fatalf("an existing customer must never be discarded, got %v", customers.discarded)
	}
}

func TestConvertLeadNotReady(t *testing.T) {
	svc, _, _ := newTestService()
	svc.SetCustomerProvisioner(&fakeCustomers{})
	tenantID := uuid.New()
	lead, _ := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "A"})

	_, err := svc.ConvertLead(context.Background(), tenantID, lead.ID, transport.ConvertLeadRequest{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	issues, _ := appErr.Details.([]string)
	if len(issues) < 3 {
		t.Fatalf("expected every readiness issue in details, got %v", appErr.Details)
	}
}

func TestListFiltersAndPaging(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	for i := 0; i < 25; i++ {
		if _, err := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "Lead", Source: "web"}); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "Other", Source: "fair"})

	page, err := svc.List(context.Background(), tenantID, transport.ListLeadsRequest{Source: "web", Page: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 25 || len(page.Data) != 5 || page.TotalPages != 2 || page.PageSize != 20 {
		t.Fatalf("unexpected page: total=%d len=%d pages=%d", page.Total, len(page.Data), page.TotalPages)
	}

	if _, err := svc.List(context.Background(), tenantID, transport.ListLeadsRequest{Status: "nope"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	empty, err := svc.List(context.Background(), uuid.Nil, transport.ListLeadsRequest{})
	if err != nil || empty.Total != 0 || empty.Data == nil {
		t.Fatalf("nil tenant must yield an empty page, got %+v %v", empty, err)
	}
}

func TestSummary(t *testing.T) {
	svc, _, _ := newTestService()
	tenantID := uuid.New()
	createQualifiedLead(t, svc, tenantID)
	_, _ = svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{FirstName: "B"})

	summary, err := svc.Summary(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 2 || summary.ByStatus[domain.StatusQualified] != 1 || summary.ByStatus[domain.StatusNew] != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
