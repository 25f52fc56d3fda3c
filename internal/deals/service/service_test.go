package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/deals/domain"
	"pipeline_backend/internal/deals/repository"
	"pipeline_backend/internal/deals/transport"
	"pipeline_backend/internal/events"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type knownCustomers map[uuid.UUID]bool

func (k knownCustomers) CustomerExists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	return k[id], nil
}

type catalog map[uuid.UUID]domain.Product

func (c catalog) GetProduct(_ context.Context, _ uuid.UUID, id uuid.UUID) (domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

type staticConfig struct{}

func (staticConfig) GetDefaultCurrency() string { return "EUR" }
func (staticConfig) GetContractTermDays() int   { return 30 }
func (staticConfig) GetBulkConcurrency() int    { return 2 }
func (staticConfig) GetCompanyName() string     { return "Acme Sales" }

type fixture struct {
	svc      *Service
	bus      *recordingBus
	tenant   uuid.UUID
	customer uuid.UUID
	products catalog
}

func newFixture(t *testing.T, readModels cache.ReadModel) fixture {
	t.Helper()
	f := fixture{
		bus:      &recordingBus{},
		tenant:   uuid.New(),
		customer: uuid.New(),
		products: catalog{},
	}
	f.svc = New(repository.NewMemory(), f.bus, readModels, staticConfig{}, logger.New("test"))
	f.svc.SetClock(func() time.Time { return testNow })
	f.svc.SetCustomerReader(knownCustomers{f.customer: true})
	f.svc.SetProductReader(f.products)
	return f
}

func (f fixture) createDeal(t *testing.T, title, stage string) domain.Deal {
	t.Helper()
	deal, err := f.svc.Create(context.Background(), f.tenant, transport.CreateDealRequest{
		Title:      title,
		CustomerID: f.customer,
		Stage:      stage,
	})
	require.NoError(t, err)
	return deal
}

func (f fixture) addProduct(name, price string) uuid.UUID {
	id := uuid.New()
	f.products[id] = domain.Product{ID: id, Name: name, UnitPrice: decimal.RequireFromString(price)}
	return id
}

func TestCreateRequiresExistingCustomer(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), f.tenant, transport.CreateDealRequest{
		Title:      "Unknown buyer",
		CustomerID: uuid.New(),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	deal := f.createDeal(t, "Known buyer", "")
	assert.Equal(t, domain.StageLead, deal.Stage)
	assert.Equal(t, 1, f.bus.count(events.DealCreated{}.EventName()))
}

func TestItemsKeepValueInSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	deal := f.createDeal(t, "Office fit-out", "proposal")
	chairs := f.addProduct("Chair", "80")
	desks := f.addProduct("Desk", "250")

	_, err := f.svc.AddItem(ctx, f.tenant, deal.ID, chairs)
	require.NoError(t, err)
	res, err := f.svc.AddItem(ctx, f.tenant, deal.ID, desks)
	require.NoError(t, err)
	assert.True(t, res.Deal.Value.Equal(decimal.NewFromInt(330)), "value %s", res.Deal.Value)

	_, err = f.svc.AddItem(ctx, f.tenant, deal.ID, chairs)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate), "got %v", err)

	qty := 10
	discount := decimal.RequireFromString("5000")
	res, err = f.svc.UpdateItem(ctx, f.tenant, deal.ID, res.Deal.Items[0].ID, transport.UpdateItemRequest{Quantity: &qty, Discount: &discount})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarningNegativeTotal, res.Warnings[0].Code)
	assert.True(t, res.Deal.Value.Equal(decimal.NewFromInt(250)), "value %s", res.Deal.Value)

	stored, err := f.svc.Get(ctx, f.tenant, deal.ID)
	require.NoError(t, err)
	assert.True(t, stored.Value.Equal(decimal.NewFromInt(250)))
	assert.Len(t, stored.Items, 2)
}

func TestStatsReadModelIsInvalidated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, cache.NewRedis(client, time.Minute, logger.New("test")))
	deal := f.createDeal(t, "Renewal", "negotiation")
	_, err := f.svc.SetValue(ctx, f.tenant, deal.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.ConversionRate)
	assert.True(t, mr.Exists(cache.Key("deals", f.tenant, "stats")))

	_, err = f.svc.UpdateStage(ctx, f.tenant, deal.ID, transport.UpdateStageRequest{Stage: "closed_won"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.Key("deals", f.tenant, "stats")))

	stats, err = f.svc.Stats(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.ConversionRate)
	assert.Equal(t, 1, stats.ByStage[domain.StageClosedWon])
	assert.Equal(t, 1, f.bus.count(events.DealStageChanged{}.EventName()))
}

// interleavedRepo runs during once, after ListForStats has loaded its rows.
type interleavedRepo struct {
	repository.Repository
	during func()
}

func (r *interleavedRepo) ListForStats(ctx context.Context, organizationID uuid.UUID) ([]domain.Deal, error) {
	deals, err := r.Repository.ListForStats(ctx, organizationID)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return deals, err
}

func newRedisFixture(t *testing.T) (fixture, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return newFixture(t, cache.NewRedis(client, time.Minute, logger.New("test"))), mr
}

func TestStatsLoadedBeforeAMutationAreNotCached(t *testing.T) {
	ctx := context.Background()
	f, mr := newRedisFixture(t)
	deal := f.createDeal(t, "Renewal", "negotiation")

	repo := &interleavedRepo{Repository: f.svc.repo}
	repo.during = func() {
		_, err := f.svc.UpdateStage(ctx, f.tenant, deal.ID, transport.UpdateStageRequest{Stage: "closed_won"})
		require.NoError(t, err)
	}
	f.svc.repo = repo

	stale, err := f.svc.Stats(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stale.ConversionRate)
	assert.False(t, mr.Exists(cache.Key("deals", f.tenant, "stats")))

	fresh, err := f.svc.Stats(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 1.0, fresh.ConversionRate)
	assert.True(t, mr.Exists(cache.Key("deals", f.tenant, "stats")))
}

func TestStatsForNilTenantAreNotCached(t *testing.T) {
	f, mr := newRedisFixture(t)

	stats, err := f.svc.Stats(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.False(t, mr.Exists(cache.Key("deals", uuid.Nil, "stats")))
}

func TestGetOpportunity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	lead := f.createDeal(t, "Early", "lead")
	proposal := f.createDeal(t, "Pitched", "proposal")

	_, err := f.svc.GetOpportunity(ctx, f.tenant, lead.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotOpportunity), "got %v", err)

	got, err := f.svc.GetOpportunity(ctx, f.tenant, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, proposal.ID, got.ID)

	page, err := f.svc.ListOpportunities(ctx, f.tenant, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, proposal.ID, page.Data[0].ID)
}

func TestBulkDeleteReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	first := f.createDeal(t, "One", "")
	second := f.createDeal(t, "Two", "")
	missing := uuid.New()

	result, err := f.svc.BulkDelete(ctx, f.tenant, []uuid.UUID{first.ID, missing, second.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, missing, result.Failed[0].ID)
	assert.Equal(t, "not_found", result.Failed[0].Code)
}

func TestBulkUpdateAppliesPerDealValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	early := f.createDeal(t, "Early", "lead")
	late := f.createDeal(t, "Late", "negotiation")
	stage := "proposal"
	campaign := "spring"

	result, err := f.svc.BulkUpdate(ctx, f.tenant, transport.BulkUpdateRequest{
		IDs:   []uuid.UUID{early.ID, late.ID, early.ID},
		Stage: &stage,
		Patch: transport.UpdateDealRequest{Campaign: &campaign},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early.ID}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, late.ID, result.Failed[0].ID)
	assert.Equal(t, "invalid_transition", result.Failed[0].Code)
	assert.Equal(t, "validation", result.Failed[1].Code)

	moved, err := f.svc.Get(ctx, f.tenant, early.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageProposal, moved.Stage)
	assert.Equal(t, "spring", moved.Campaign)

	untouched, err := f.svc.Get(ctx, f.tenant, late.ID)
	require.NoError(t, err)
	assert.Equal(t, "", untouched.Campaign)
}

func TestListWithoutTenantIsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	f.createDeal(t, "Hidden", "")

	page, err := f.svc.List(context.Background(), uuid.Nil, transport.ListDealsRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 1, page.Page)
}

func TestProposalRendersPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	deal := f.createDeal(t, "Office fit-out", "proposal")
	_, err := f.svc.AddItem(ctx, f.tenant, deal.ID, f.addProduct("Desk", "250"))
	require.NoError(t, err)

	doc, err := f.svc.Proposal(ctx, f.tenant, deal.ID)
	require.NoError(t, err)
	assert.True(t, len(doc) > 4 && string(doc[:4]) == "%PDF", "expected a PDF document")

	_, err = f.svc.Proposal(ctx, f.tenant, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}
