// Package service implements the deal and opportunity use cases: the stage
// machine, the product-line calculator, cached pipeline read models and bulk
// operations with per-id results.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/deals/domain"
	"pipeline_backend/internal/deals/repository"
	"pipeline_backend/internal/deals/transport"
	"pipeline_backend/internal/events"
	"pipeline_backend/internal/pdf"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const cacheModule = "deals"

const defaultBulkConcurrency = 8

// CustomerReader checks the customer a deal points at.
type CustomerReader interface {
	CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
}

// ProductReader resolves catalog products for new deal items.
type ProductReader interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (domain.Product, error)
}

// Service provides business logic for deals.
type Service struct {
	repo            repository.Repository
	eventBus        events.Publisher
	cache           cache.ReadModel
	customers       CustomerReader
	products        ProductReader
	bulkConcurrency int
	companyName     string
	log             *logger.Logger
	now             func() time.Time
}

// New creates a new deals service.
func New(repo repository.Repository, eventBus events.Publisher, readModels cache.ReadModel, cfg config.PipelineConfig, log *logger.Logger) *Service {
	if readModels == nil {
		readModels = cache.Noop{}
	}
	concurrency := defaultBulkConcurrency
	companyName := ""
	if cfg != nil {
		if cfg.GetBulkConcurrency() > 0 {
			concurrency = cfg.GetBulkConcurrency()
		}
		companyName = cfg.GetCompanyName()
	}
	return &Service{
		repo:            repo,
		eventBus:        eventBus,
		cache:           readModels,
		bulkConcurrency: concurrency,
		companyName:     companyName,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SetCustomerReader enables the customer existence check.
func (s *Service) SetCustomerReader(r CustomerReader) {
	s.customers = r
}

// SetProductReader enables adding catalog products as items.
func (s *Service) SetProductReader(r ProductReader) {
	s.products = r
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create opens a deal for an existing customer.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateDealRequest) (domain.Deal, error) {
	if err := s.ensureCustomer(ctx, tenantID, req.CustomerID); err != nil {
		return domain.Deal{}, err
	}

	value := decimal.Zero
	if req.Value != nil {
		value = *req.Value
	}
	deal, err := domain.NewDeal(domain.NewDealInput{
		OrganizationID:    tenantID,
		Title:             req.Title,
		Description:       sanitize.Text(req.Description),
		Value:             value,
		Stage:             domain.Stage(req.Stage),
		CustomerID:        req.CustomerID,
		AssignedTo:        req.AssignedTo,
		Probability:       req.Probability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		Source:            req.Source,
		Campaign:          req.Campaign,
		Tags:              req.Tags,
		LeadID:            req.LeadID,
	}, s.now())
	if err != nil {
		return domain.Deal{}, err
	}

	created, err := s.repo.Create(ctx, deal)
	if err != nil {
		return domain.Deal{}, err
	}

	s.invalidate(ctx, tenantID, created.ID)
	s.eventBus.Publish(ctx, events.DealCreated{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     created.ID,
		TenantID:   tenantID,
		CustomerID: created.CustomerID,
		Value:      created.Value.StringFixed(2),
	})
	s.log.Info("deal created", "dealId", created.ID, "tenantId", tenantID, "stage", created.Stage)
	return created, nil
}

// Get returns a deal with its items.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (domain.Deal, error) {
	key := cache.Key(cacheModule, tenantID, "detail", id.String())
	var cached domain.Deal
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	version, cacheable := s.readVersion(ctx, tenantID)
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	if cacheable {
		s.store(ctx, tenantID, version, key, deal)
	}
	return deal, nil
}

// customerNamer is implemented by customer readers that can also resolve names.
type customerNamer interface {
	CustomerName(ctx context.Context, tenantID, customerID uuid.UUID) (string, error)
}

// Proposal renders the deal and its product lines as a PDF.
func (s *Service) Proposal(ctx context.Context, tenantID, id uuid.UUID) ([]byte, error) {
	deal, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	customerName := ""
	if namer, ok := s.customers.(customerNamer); ok {
		if customerName, err = namer.CustomerName(ctx, tenantID, deal.CustomerID); err != nil {
			return nil, err
		}
	}

	doc, err := pdf.GenerateProposalPDF(pdf.ProposalData{
		Deal:             deal,
		CustomerName:     customerName,
		OrganizationName: s.companyName,
		GeneratedAt:      s.now(),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render proposal", err).WithOp("deals.Proposal")
	}
	return doc, nil
}

// Update patches descriptive deal fields.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateDealRequest) (domain.Deal, error) {
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	next, err := s.patched(ctx, tenantID, deal, req)
	if err != nil {
		return domain.Deal{}, err
	}
	return s.save(ctx, next)
}

func (s *Service) patched(ctx context.Context, tenantID uuid.UUID, deal domain.Deal, req transport.UpdateDealRequest) (domain.Deal, error) {
	if req.CustomerID != nil && *req.CustomerID != deal.CustomerID {
		if err := s.ensureCustomer(ctx, tenantID, *req.CustomerID); err != nil {
			return domain.Deal{}, err
		}
	}
	patch := domain.Patch{
		Title:             req.Title,
		AssignedTo:        req.AssignedTo,
		ClearAssignee:     req.ClearAssignee,
		Probability:       req.Probability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		Source:            req.Source,
		Campaign:          req.Campaign,
		Tags:              req.Tags,
		CustomerID:        req.CustomerID,
	}
	if req.Description != nil {
		description := sanitize.Text(*req.Description)
		patch.Description = &description
	}

	return domain.ApplyPatch(deal, patch, s.now())
}

// Delete removes a deal and its items.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID, id)
	s.eventBus.Publish(ctx, events.DealDeleted{
		BaseEvent: events.NewBaseEvent(),
		DealID:    id,
		TenantID:  tenantID,
	})
	s.log.Info("deal deleted", "dealId", id, "tenantId", tenantID)
	return nil
}

// List returns a page of deals matching the filters.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListDealsRequest) (paging.Result[domain.Deal], error) {
	page, pageSize := paging.Normalize(req.Page, req.PageSize)
	key := cache.Key(cacheModule, tenantID, "list", listFingerprint(req, page, pageSize))

	var cached paging.Result[domain.Deal]
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	params, err := listParams(tenantID, req)
	if err != nil {
		return paging.Result[domain.Deal]{}, err
	}
	params.Offset = paging.Offset(page, pageSize)
	params.Limit = pageSize

	version, cacheable := s.readVersion(ctx, tenantID)
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return paging.Result[domain.Deal]{}, err
	}
	result := paging.NewResult(items, total, page, pageSize)
	if cacheable {
		s.store(ctx, tenantID, version, key, result)
	}
	return result, nil
}

// Stats aggregates every deal of the tenant.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (domain.Stats, error) {
	key := cache.Key(cacheModule, tenantID, "stats")
	var cached domain.Stats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	version, cacheable := s.readVersion(ctx, tenantID)
	deals, err := s.repo.ListForStats(ctx, tenantID)
	if err != nil {
		return domain.Stats{}, err
	}
	stats := domain.ComputeStats(deals)
	if cacheable {
		s.store(ctx, tenantID, version, key, stats)
	}
	return stats, nil
}

// ListOpportunities returns the deals in the qualified, proposal and
// negotiation stages, newest first.
func (s *Service) ListOpportunities(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (paging.Result[domain.Deal], error) {
	page, pageSize = paging.Normalize(page, pageSize)
	key := cache.Key(cacheModule, tenantID, "opportunities", fmt.Sprintf("%d:%d", page, pageSize))

	var cached paging.Result[domain.Deal]
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	version, cacheable := s.readVersion(ctx, tenantID)
	items, total, err := s.repo.List(ctx, repository.ListParams{
		OrganizationID: tenantID,
		Stages:         []domain.Stage{domain.StageQualified, domain.StageProposal, domain.StageNegotiation},
		Offset:         paging.Offset(page, pageSize),
		Limit:          pageSize,
	})
	if err != nil {
		return paging.Result[domain.Deal]{}, err
	}
	result := paging.NewResult(domain.FilterOpportunities(items), total, page, pageSize)
	if cacheable {
		s.store(ctx, tenantID, version, key, result)
	}
	return result, nil
}

// GetOpportunity returns a deal only while it is an opportunity.
func (s *Service) GetOpportunity(ctx context.Context, tenantID, id uuid.UUID) (domain.Deal, error) {
	deal, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	if !domain.IsOpportunity(deal) {
		return domain.Deal{}, apperr.NotOpportunity(fmt.Sprintf("deal is in stage %s and is not an opportunity", deal.Stage)).
			WithDetails(map[string]string{"stage": string(deal.Stage)})
	}
	return deal, nil
}

// UpdateStage moves the deal through the pipeline.
func (s *Service) UpdateStage(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateStageRequest) (domain.Deal, error) {
	to, err := domain.ParseStage(req.Stage)
	if err != nil {
		return domain.Deal{}, err
	}
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	next, err := domain.UpdateStage(deal, to, req.ActualCloseDate, s.now())
	if err != nil {
		return domain.Deal{}, err
	}
	if next.Stage == deal.Stage {
		return deal, nil
	}
	return s.saveStageChange(ctx, tenantID, deal.Stage, next)
}

func (s *Service) saveStageChange(ctx context.Context, tenantID uuid.UUID, oldStage domain.Stage, next domain.Deal) (domain.Deal, error) {
	saved, err := s.save(ctx, next)
	if err != nil {
		return domain.Deal{}, err
	}

	s.eventBus.Publish(ctx, events.DealStageChanged{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     saved.ID,
		TenantID:   tenantID,
		Title:      saved.Title,
		OldStage:   string(oldStage),
		NewStage:   string(saved.Stage),
		Value:      saved.Value.StringFixed(2),
		AssignedTo: saved.AssignedTo,
	})
	s.log.Info("deal stage changed", "dealId", saved.ID, "from", oldStage, "to", saved.Stage)
	return saved, nil
}

// Cancel withdraws an open deal.
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID) (domain.Deal, error) {
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	next, err := domain.Cancel(deal, s.now())
	if err != nil {
		return domain.Deal{}, err
	}
	return s.save(ctx, next)
}

// SetValue sets the value of a deal without items.
func (s *Service) SetValue(ctx context.Context, tenantID, id uuid.UUID, value decimal.Decimal) (domain.Deal, error) {
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	next, err := domain.SetValue(deal, value, s.now())
	if err != nil {
		return domain.Deal{}, err
	}
	return s.save(ctx, next)
}

// AddItem adds a catalog product as a new line.
func (s *Service) AddItem(ctx context.Context, tenantID, id, productID uuid.UUID) (transport.ItemMutationResponse, error) {
	if s.products == nil {
		return transport.ItemMutationResponse{}, apperr.Internal("product catalog is not configured")
	}
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}
	product, err := s.products.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}

	next, err := domain.AddItem(deal, product, s.now())
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}
	saved, err := s.save(ctx, next)
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}
	return transport.ItemMutationResponse{Deal: saved, Warnings: []domain.Warning{}}, nil
}

// UpdateItem changes quantity, discount or tax of a line.
func (s *Service) UpdateItem(ctx context.Context, tenantID, id, itemID uuid.UUID, req transport.UpdateItemRequest) (transport.ItemMutationResponse, error) {
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}
	next, warnings, err := domain.UpdateItem(deal, itemID, domain.ItemChange{
		Quantity: req.Quantity,
		Discount: req.Discount,
		Tax:      req.Tax,
	}, s.now())
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}
	saved, err := s.save(ctx, next)
	if err != nil {
		return transport.ItemMutationResponse{}, err
	}
	for _, w := range warnings {
		s.log.Warn("deal item clamped", "dealId", saved.ID, "itemId", w.ItemID, "code", w.Code)
	}
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	return transport.ItemMutationResponse{Deal: saved, Warnings: warnings}, nil
}

// RemoveItem drops a line.
func (s *Service) RemoveItem(ctx context.Context, tenantID, id, itemID uuid.UUID) (domain.Deal, error) {
	deal, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Deal{}, err
	}
	next, err := domain.RemoveItem(deal, itemID, s.now())
	if err != nil {
		return domain.Deal{}, err
	}
	return s.save(ctx, next)
}

// BulkUpdate applies the same patch, and optionally a stage move, to every
// id. Each id succeeds or fails on its own.
func (s *Service) BulkUpdate(ctx context.Context, tenantID uuid.UUID, req transport.BulkUpdateRequest) (transport.BulkResult, error) {
	var stage *domain.Stage
	if req.Stage != nil {
		to, err := domain.ParseStage(*req.Stage)
		if err != nil {
			return transport.BulkResult{}, err
		}
		stage = &to
	}

	result := s.fanOut(ctx, req.IDs, func(ctx context.Context, id uuid.UUID) error {
		deal, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		next, err := s.patched(ctx, tenantID, deal, req.Patch)
		if err != nil {
			return err
		}
		if stage != nil {
			if next, err = domain.UpdateStage(next, *stage, nil, s.now()); err != nil {
				return err
			}
			if next.Stage != deal.Stage {
				_, err = s.saveStageChange(ctx, tenantID, deal.Stage, next)
				return err
			}
		}
		_, err = s.save(ctx, next)
		return err
	})
	s.log.BulkOutcome("deals.bulk_update", len(result.Succeeded), len(result.Failed))
	return result, nil
}

// BulkDelete deletes every id independently.
func (s *Service) BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (transport.BulkResult, error) {
	result := s.fanOut(ctx, ids, func(ctx context.Context, id uuid.UUID) error {
		return s.Delete(ctx, tenantID, id)
	})
	s.log.BulkOutcome("deals.bulk_delete", len(result.Succeeded), len(result.Failed))
	return result, nil
}

// fanOut runs op for every id with bounded parallelism. An error for one id
// never cancels the others; results keep the request order.
func (s *Service) fanOut(ctx context.Context, ids []uuid.UUID, op func(context.Context, uuid.UUID) error) transport.BulkResult {
	errs := make([]error, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.bulkConcurrency)

	seen := make(map[uuid.UUID]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			errs[i] = apperr.Validation("duplicate id in request")
			continue
		}
		seen[id] = true
		i, id := i, id
		g.Go(func() error {
			errs[i] = op(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := transport.BulkResult{Succeeded: []uuid.UUID{}, Failed: []transport.BulkFailure{}}
	for i, id := range ids {
		if errs[i] == nil {
			result.Succeeded = append(result.Succeeded, id)
			continue
		}
		result.Failed = append(result.Failed, transport.BulkFailure{
			ID:    id,
			Error: errs[i].Error(),
			Code:  apperr.GetKind(errs[i]).String(),
		})
	}
	return result
}

// CustomerHasDeals reports whether any deal references the customer.
func (s *Service) CustomerHasDeals(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	return s.repo.ExistsForCustomer(ctx, tenantID, customerID)
}

// Import creates a deal from an already-parsed import row.
func (s *Service) Import(ctx context.Context, tenantID uuid.UUID, req transport.CreateDealRequest) error {
	_, err := s.Create(ctx, tenantID, req)
	return err
}

// ListAll returns every deal of the tenant, for exports.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]domain.Deal, error) {
	all := make([]domain.Deal, 0)
	for offset := 0; ; offset += paging.MaxPageSize {
		items, total, err := s.repo.List(ctx, repository.ListParams{
			OrganizationID: tenantID,
			Offset:         offset,
			Limit:          paging.MaxPageSize,
			SortBy:         "createdAt",
			SortOrder:      "asc",
		})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

func (s *Service) ensureCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return apperr.Validation("deal customer is required")
	}
	if s.customers == nil {
		return nil
	}
	exists, err := s.customers.CustomerExists(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.Validation("customer does not exist").WithDetails(map[string]string{"customerId": customerID.String()})
	}
	return nil
}

func (s *Service) save(ctx context.Context, deal domain.Deal) (domain.Deal, error) {
	saved, err := s.repo.Update(ctx, deal)
	if err != nil {
		return domain.Deal{}, err
	}
	s.invalidate(ctx, deal.OrganizationID, deal.ID)
	return saved, nil
}

// readVersion is called before loading from the repository. Loads for the nil
// tenant or without a readable counter are not cached.
func (s *Service) readVersion(ctx context.Context, tenantID uuid.UUID) (int64, bool) {
	if tenantID == uuid.Nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, cache.Scope(cacheModule, tenantID))
	if err != nil {
		s.log.Warn("deal read model version unavailable", "tenantId", tenantID, "error", err)
		return 0, false
	}
	return version, true
}

func (s *Service) store(ctx context.Context, tenantID uuid.UUID, version int64, key string, value any) {
	if _, err := s.cache.SetIfCurrent(ctx, cache.Scope(cacheModule, tenantID), version, key, value); err != nil {
		s.log.Warn("deal read model not cached", "key", key, "error", err)
	}
}

// invalidate bumps the tenant counter before deleting, so loads still in
// flight cannot write their result back.
func (s *Service) invalidate(ctx context.Context, tenantID, dealID uuid.UUID) {
	if err := s.cache.Bump(ctx, cache.Scope(cacheModule, tenantID)); err != nil {
		s.log.Warn("deal read model version not bumped", "dealId", dealID, "error", err)
	}
	err := s.cache.Invalidate(ctx,
		cache.Key(cacheModule, tenantID, "stats"),
		cache.Key(cacheModule, tenantID, "detail", dealID.String()),
		cache.Key(cacheModule, tenantID, "list", "*"),
		cache.Key(cacheModule, tenantID, "opportunities", "*"),
	)
	if err != nil {
		s.log.Warn("deal read models not invalidated", "dealId", dealID, "error", err)
	}
}

func listParams(tenantID uuid.UUID, req transport.ListDealsRequest) (repository.ListParams, error) {
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         strings.TrimSpace(req.Search),
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	for _, raw := range splitFilter(req.Stage) {
		stage, err := domain.ParseStage(raw)
		if err != nil {
			return params, err
		}
		params.Stages = append(params.Stages, stage)
	}
	for _, raw := range splitFilter(req.Status) {
		status := domain.Status(raw)
		switch status {
		case domain.StatusOpen, domain.StatusWon, domain.StatusLost, domain.StatusCancelled:
			params.Statuses = append(params.Statuses, status)
		default:
			return params, apperr.Validation(fmt.Sprintf("unknown deal status %q", raw))
		}
	}

	var err error
	if params.CustomerID, err = parseID(req.CustomerID, "customerId"); err != nil {
		return params, err
	}
	if params.AssignedTo, err = parseID(req.AssignedTo, "assignedTo"); err != nil {
		return params, err
	}
	if params.CreatedFrom, err = parseDate(req.CreatedFrom, false); err != nil {
		return params, err
	}
	if params.CreatedTo, err = parseDate(req.CreatedTo, true); err != nil {
		return params, err
	}
	if params.ExpectedCloseFrom, err = parseDate(req.ExpectedCloseFrom, false); err != nil {
		return params, err
	}
	if params.ExpectedCloseTo, err = parseDate(req.ExpectedCloseTo, true); err != nil {
		return params, err
	}
	return params, nil
}

func listFingerprint(req transport.ListDealsRequest, page, pageSize int) string {
	req.Page, req.PageSize = page, pageSize
	sum := sha256.Sum256([]byte(fmt.Sprintf("%+v", req)))
	return hex.EncodeToString(sum[:8])
}

func parseID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("invalid " + field)
	}
	return &id, nil
}

func splitFilter(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A bare end date covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date %q", raw))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
