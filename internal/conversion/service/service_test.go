package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pipeline_backend/internal/conversion/domain"
	"pipeline_backend/internal/conversion/transport"
	"pipeline_backend/internal/events"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)

type dealStore map[uuid.UUID]domain.Deal

func (d dealStore) GetDeal(_ context.Context, _ uuid.UUID, id uuid.UUID) (domain.Deal, error) {
	deal, ok := d[id]
	if !ok {
		return domain.Deal{}, apperr.NotFound("deal not found")
	}
	return deal, nil
}

type customerNames map[uuid.UUID]string

func (c customerNames) CustomerName(_ context.Context, _ uuid.UUID, id uuid.UUID) (string, error) {
	return c[id], nil
}

type contractLedger struct {
	mu     sync.Mutex
	drafts []domain.ContractDraft
}

func (l *contractLedger) CreateContract(_ context.Context, _ uuid.UUID, draft domain.ContractDraft) (domain.ContractSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drafts = append(l.drafts, draft)
	return domain.ContractSummary{ID: uuid.New(), ContractNumber: "CT-000001", Title: draft.Title, Status: "draft"}, nil
}

func (l *contractLedger) ListContractsForDeal(_ context.Context, _ uuid.UUID, _ uuid.UUID) ([]domain.ContractSummary, error) {
	return nil, nil
}

type flakySales struct {
	mu      sync.Mutex
	failFor uuid.UUID
	lines   []domain.SaleLine
}

func (f *flakySales) RecordSale(_ context.Context, _ uuid.UUID, line domain.SaleLine) (uuid.UUID, error) {
	if line.ItemID == f.failFor {
		return uuid.Nil, errors.New("ledger unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	return uuid.New(), nil
}

type eventLog struct {
	mu    sync.Mutex
	names []string
}

func (e *eventLog) Publish(_ context.Context, event events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, event.EventName())
}

type fixture struct {
	svc       *Service
	deals     dealStore
	contracts *contractLedger
	sales     *flakySales
	events    *eventLog
	tenant    uuid.UUID
}

func newFixture() fixture {
	f := fixture{
		deals:     dealStore{},
		contracts: &contractLedger{},
		sales:     &flakySales{},
		events:    &eventLog{},
		tenant:    uuid.New(),
	}
	f.svc = New(f.deals, customerNames{}, f.contracts, f.sales, f.events, nil, logger.New("test"))
	f.svc.SetClock(func() time.Time { return testNow })
	return f
}

func (f fixture) addDeal(stage string, items ...domain.Item) domain.Deal {
	deal := domain.Deal{
		ID:             uuid.New(),
		OrganizationID: f.tenant,
		Title:          "Office fit-out",
		Stage:          stage,
		CustomerID:     uuid.New(),
		Value:          decimal.NewFromInt(500),
		Items:          items,
	}
	f.deals[deal.ID] = deal
	return deal
}

func item(name string) domain.Item {
	return domain.Item{
		ID:          uuid.New(),
		ProductID:   uuid.New(),
		ProductName: name,
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(100),
		LineTotal:   decimal.NewFromInt(100),
	}
}

func TestCreateSalesFromItemsPartialFailure(t *testing.T) {
	f := newFixture()
	first, second, third := item("Desk"), item("Chair"), item("Lamp")
	deal := f.addDeal(domain.StageClosedWon, first, second, third)
	f.sales.failFor = second.ID

	result, err := f.svc.CreateSalesFromItems(context.Background(), f.tenant, deal.ID, transport.CreateSalesRequest{
		ItemIDs: []uuid.UUID{first.ID, second.ID, third.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Chair")
	assert.Len(t, f.sales.lines, 2)
	assert.Contains(t, f.events.names, events.ProductSalesCreated{}.EventName())
}

func TestCreateSalesFromItemsReportsUnknownItems(t *testing.T) {
	f := newFixture()
	known := item("Desk")
	deal := f.addDeal(domain.StageClosedWon, known)

	result, err := f.svc.CreateSalesFromItems(context.Background(), f.tenant, deal.ID, transport.CreateSalesRequest{
		ItemIDs: []uuid.UUID{known.ID, uuid.New()},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not found on deal")
	assert.True(t, f.sales.lines[0].SaleDate.Equal(testNow))
}

func TestCreateSalesFromItemsValidation(t *testing.T) {
	f := newFixture()
	deal := f.addDeal(domain.StageClosedWon, item("Desk"))

	_, err := f.svc.CreateSalesFromItems(context.Background(), f.tenant, deal.ID, transport.CreateSalesRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	orphan := f.addDeal(domain.StageClosedWon, item("Desk"))
	orphan.CustomerID = uuid.Nil
	f.deals[orphan.ID] = orphan
	_, err = f.svc.CreateSalesFromItems(context.Background(), f.tenant, orphan.ID, transport.CreateSalesRequest{
		ItemIDs: []uuid.UUID{orphan.Items[0].ID},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestConvertToContract(t *testing.T) {
	f := newFixture()
	deal := f.addDeal(domain.StageClosedWon)
	notes := "countersigned"

	resp, err := f.svc.ConvertToContract(context.Background(), f.tenant, deal.ID, transport.ConvertRequest{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, "CT-000001", resp.Contract.ContractNumber)
	require.Len(t, f.contracts.drafts, 1)
	draft := f.contracts.drafts[0]
	assert.Equal(t, deal.ID, draft.DealID)
	assert.Equal(t, "EUR", draft.Currency)
	assert.True(t, draft.EndDate.Equal(draft.StartDate.AddDate(0, 0, 30)))
	assert.Contains(t, draft.Notes, notes)
	assert.Contains(t, f.events.names, events.DealConvertedToContract{}.EventName())
}

func TestConvertToContractRejectsOpenDeal(t *testing.T) {
	f := newFixture()
	deal := f.addDeal("qualified")

	_, err := f.svc.ConvertToContract(context.Background(), f.tenant, deal.ID, transport.ConvertRequest{})

	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	details, ok := appErr.Details.([]string)
	require.True(t, ok)
	assert.Contains(t, details[0], "closed-won")
	assert.Empty(t, f.contracts.drafts)
}

func TestListLinkedContractsIsNeverNil(t *testing.T) {
	f := newFixture()
	deal := f.addDeal(domain.StageClosedWon)

	linked, err := f.svc.ListLinkedContracts(context.Background(), f.tenant, deal.ID)

	require.NoError(t, err)
	assert.NotNil(t, linked)
	assert.Empty(t, linked)

	_, err = f.svc.ListLinkedContracts(context.Background(), f.tenant, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
