package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/contracts/domain"
	"pipeline_backend/internal/contracts/repository"
	"pipeline_backend/internal/contracts/transport"
	"pipeline_backend/internal/events"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type approvalBus struct {
	mu       sync.Mutex
	recorded []events.ContractApprovalRecorded
}

func (b *approvalBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := event.(events.ContractApprovalRecorded); ok {
		b.recorded = append(b.recorded, e)
	}
}

type currencyConfig string

func (c currencyConfig) GetDefaultCurrency() string { return string(c) }
func (currencyConfig) GetContractTermDays() int     { return 30 }
func (currencyConfig) GetBulkConcurrency() int      { return 4 }
func (currencyConfig) GetCompanyName() string       { return "Acme Sales" }

func newService(t *testing.T) (*Service, *approvalBus, uuid.UUID) {
	t.Helper()
	bus := &approvalBus{}
	svc := New(repository.NewMemory(), bus, cache.Noop{}, currencyConfig("USD"), logger.New("test"))
	svc.SetClock(func() time.Time { return testNow })
	return svc, bus, uuid.New()
}

func createRequest() transport.CreateContractRequest {
	return transport.CreateContractRequest{
		Title:      "Maintenance agreement",
		CustomerID: uuid.New(),
		Value:      decimal.RequireFromString("4800"),
		StartDate:  testNow,
		EndDate:    testNow.AddDate(1, 0, 0),
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func TestCreateAssignsSequentialNumbersAndDefaultCurrency(t *testing.T) {
	svc, _, tenant := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, tenant, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, tenant, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.ContractNumber != "CT-000001" || second.ContractNumber != "CT-000002" {
		t.Fatalf("unexpected numbers %s, %s", first.ContractNumber, second.ContractNumber)
	}
	if first.Currency != "USD" {
		t.Fatalf("expected configured currency, got %s", first.Currency)
	}
	if first.Status != domain.StatusDraft {
		t.Fatalf("expected draft, got %s", first.Status)
	}
}

func TestApprovalWorkflow(t *testing.T) {
	svc, bus, tenant := newService(t)
	ctx := context.Background()

	contract, err := svc.Create(ctx, tenant, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.RecordApproval(ctx, tenant, contract.ID, transport.ApprovalRequest{Stage: "legal", Approver: "ana", Status: "approved"})
	requireKind(t, err, apperr.KindInvalidTransition)

	if _, err := svc.Submit(ctx, tenant, contract.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	approved, err := svc.RecordApproval(ctx, tenant, contract.ID, transport.ApprovalRequest{Stage: "legal", Approver: "ana", Status: "approved"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", approved.Status)
	}
	if len(approved.ApprovalHistory) != 1 || approved.ApprovalHistory[0].ApprovedAt == nil {
		t.Fatalf("expected one decided approval record, got %+v", approved.ApprovalHistory)
	}
	if len(bus.recorded) != 1 || bus.recorded[0].Status != "approved" {
		t.Fatalf("expected one approval event, got %+v", bus.recorded)
	}

	requireKind(t, svc.Delete(ctx, tenant, contract.ID), apperr.KindInvalidTransition)

	if _, err := svc.Terminate(ctx, tenant, contract.ID); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := svc.Delete(ctx, tenant, contract.ID); err != nil {
		t.Fatalf("delete terminated contract: %v", err)
	}
}

func TestUpdateTermsOnlyWhileEditable(t *testing.T) {
	svc, _, tenant := newService(t)
	ctx := context.Background()

	contract, err := svc.Create(ctx, tenant, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(ctx, tenant, contract.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	value := decimal.RequireFromString("9000")
	_, err = svc.Update(ctx, tenant, contract.ID, transport.UpdateContractRequest{Value: &value})
	requireKind(t, err, apperr.KindInvalidTransition)

	notes := "customer asked for a call"
	updated, err := svc.Update(ctx, tenant, contract.ID, transport.UpdateContractRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("update notes: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("expected notes to change, got %q", updated.Notes)
	}
}

func TestListByDeal(t *testing.T) {
	svc, _, tenant := newService(t)
	ctx := context.Background()
	dealID := uuid.New()

	none, err := svc.ListByDeal(ctx, tenant, dealID)
	if err != nil {
		t.Fatalf("list by deal: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", none)
	}

	req := createRequest()
	req.DealID = &dealID
	req.DealTitle = "Rooftop install"
	if _, err := svc.Create(ctx, tenant, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, tenant, createRequest()); err != nil {
		t.Fatalf("create unrelated: %v", err)
	}

	linked, err := svc.ListByDeal(ctx, tenant, dealID)
	if err != nil {
		t.Fatalf("list by deal: %v", err)
	}
	if len(linked) != 1 || linked[0].DealTitle != "Rooftop install" {
		t.Fatalf("expected the linked contract, got %+v", linked)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _, tenant := newService(t)

	_, err := svc.List(context.Background(), tenant, transport.ListContractsRequest{Status: "draft,archived"})
	requireKind(t, err, apperr.KindValidation)
}
