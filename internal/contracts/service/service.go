// Package service implements the contract use cases: creation (directly or
// from a converted deal), term edits and the approval workflow.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/contracts/domain"
	"pipeline_backend/internal/contracts/repository"
	"pipeline_backend/internal/contracts/transport"
	"pipeline_backend/internal/events"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
)

const cacheModule = "contracts"

const defaultCurrency = "EUR"

// CustomerReader checks the customer a contract is made with.
type CustomerReader interface {
	CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
}

// Service provides business logic for contracts.
type Service struct {
	repo      repository.Repository
	eventBus  events.Publisher
	cache     cache.ReadModel
	customers CustomerReader
	currency  string
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new contracts service.
func New(repo repository.Repository, eventBus events.Publisher, readModels cache.ReadModel, cfg config.PipelineConfig, log *logger.Logger) *Service {
	if readModels == nil {
		readModels = cache.Noop{}
	}
	currency := defaultCurrency
	if cfg != nil && cfg.GetDefaultCurrency() != "" {
		currency = cfg.GetDefaultCurrency()
	}
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		cache:    readModels,
		currency: currency,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetCustomerReader enables the customer existence check.
func (s *Service) SetCustomerReader(r CustomerReader) {
	s.customers = r
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create stores a new draft contract.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateContractRequest) (domain.Contract, error) {
	return s.CreateFromInput(ctx, domain.NewContractInput{
		OrganizationID: tenantID,
		Title:          req.Title,
		Description:    sanitize.Text(req.Description),
		Type:           req.Type,
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		Value:          req.Value,
		Currency:       req.Currency,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		AssignedTo:     req.AssignedTo,
		Notes:          sanitize.Text(req.Notes),
		DealID:         req.DealID,
		DealTitle:      req.DealTitle,
	})
}

// CreateFromInput stores a draft built by another module, such as a contract
// prepared from a won deal.
func (s *Service) CreateFromInput(ctx context.Context, in domain.NewContractInput) (domain.Contract, error) {
	if in.Currency == "" {
		in.Currency = s.currency
	}
	if err := s.ensureCustomer(ctx, in.OrganizationID, in.CustomerID); err != nil {
		return domain.Contract{}, err
	}
	contract, err := domain.NewContract(in, s.now())
	if err != nil {
		return domain.Contract{}, err
	}

	created, err := s.repo.Create(ctx, contract)
	if err != nil {
		return domain.Contract{}, err
	}
	s.invalidate(ctx, created.OrganizationID, created.ID)
	s.log.Info("contract created", "contractId", created.ID, "number", created.ContractNumber, "tenantId", created.OrganizationID)
	return created, nil
}

// Get returns a contract with its approval history.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (domain.Contract, error) {
	key := cache.Key(cacheModule, tenantID, "detail", id.String())
	var cached domain.Contract
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	version, cacheable := s.readVersion(ctx, tenantID)
	contract, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if cacheable {
		s.store(ctx, tenantID, version, key, contract)
	}
	return contract, nil
}

// Update changes contract terms, notes or assignee.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateContractRequest) (domain.Contract, error) {
	contract, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Contract{}, err
	}

	patch := domain.Patch{
		Title:        req.Title,
		Type:         req.Type,
		CustomerName: req.CustomerName,
		Value:        req.Value,
		Currency:     req.Currency,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AssignedTo:   req.AssignedTo,
	}
	if req.Description != nil {
		description := sanitize.Text(*req.Description)
		patch.Description = &description
	}
	if req.Notes != nil {
		notes := sanitize.Text(*req.Notes)
		patch.Notes = &notes
	}

	next, err := domain.ApplyPatch(contract, patch, s.now())
	if err != nil {
		return domain.Contract{}, err
	}
	return s.save(ctx, next)
}

// Delete removes a contract that is not active.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	contract, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := domain.CanDelete(contract); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID, id)
	s.log.Info("contract deleted", "contractId", id, "tenantId", tenantID)
	return nil
}

// List returns a page of contracts.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListContractsRequest) (paging.Result[domain.Contract], error) {
	page, pageSize := paging.Normalize(req.Page, req.PageSize)

	params, err := listParams(tenantID, req)
	if err != nil {
		return paging.Result[domain.Contract]{}, err
	}
	params.Offset = paging.Offset(page, pageSize)
	params.Limit = pageSize

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return paging.Result[domain.Contract]{}, err
	}
	return paging.NewResult(items, total, page, pageSize), nil
}

// ListByDeal returns every contract created from the deal, oldest first.
func (s *Service) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]domain.Contract, error) {
	key := cache.Key(cacheModule, tenantID, "deal", dealID.String())
	var cached []domain.Contract
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	version, cacheable := s.readVersion(ctx, tenantID)
	all, err := s.collect(ctx, repository.ListParams{OrganizationID: tenantID, DealID: &dealID})
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.store(ctx, tenantID, version, key, all)
	}
	return all, nil
}

// Submit sends a draft or rejected contract for approval.
func (s *Service) Submit(ctx context.Context, tenantID, id uuid.UUID) (domain.Contract, error) {
	contract, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Contract{}, err
	}
	next, err := domain.Submit(contract, s.now())
	if err != nil {
		return domain.Contract{}, err
	}
	return s.save(ctx, next)
}

// RecordApproval appends an approval decision to a pending contract.
func (s *Service) RecordApproval(ctx context.Context, tenantID, id uuid.UUID, req transport.ApprovalRequest) (domain.Contract, error) {
	contract, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Contract{}, err
	}
	next, record, err := domain.RecordApproval(contract, domain.ApprovalInput{
		Stage:    req.Stage,
		Approver: req.Approver,
		Status:   req.Status,
		Comments: sanitize.Text(req.Comments),
	}, s.now())
	if err != nil {
		return domain.Contract{}, err
	}

	saved, err := s.repo.AppendApproval(ctx, next, record)
	if err != nil {
		return domain.Contract{}, err
	}
	s.invalidate(ctx, tenantID, id)
	s.eventBus.Publish(ctx, events.ContractApprovalRecorded{
		BaseEvent:  events.NewBaseEvent(),
		ContractID:     saved.ID,
		TenantID:       tenantID,
		ContractNumber: saved.ContractNumber,
		AssignedTo:     saved.AssignedTo,
		Stage:          record.Stage,
		Status:         record.Status,
		Comments:       record.Comments,
	})
	s.log.Info("contract approval recorded", "contractId", saved.ID, "stage", record.Stage, "decision", record.Status, "status", saved.Status)
	return saved, nil
}

// Terminate ends an active contract.
func (s *Service) Terminate(ctx context.Context, tenantID, id uuid.UUID) (domain.Contract, error) {
	contract, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Contract{}, err
	}
	next, err := domain.Terminate(contract, s.now())
	if err != nil {
		return domain.Contract{}, err
	}
	return s.save(ctx, next)
}

// Import creates a contract from an already-parsed import row.
func (s *Service) Import(ctx context.Context, tenantID uuid.UUID, req transport.CreateContractRequest) error {
	_, err := s.Create(ctx, tenantID, req)
	return err
}

// ListAll returns every contract of the tenant, for exports.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]domain.Contract, error) {
	return s.collect(ctx, repository.ListParams{OrganizationID: tenantID})
}

func (s *Service) collect(ctx context.Context, params repository.ListParams) ([]domain.Contract, error) {
	params.SortBy, params.SortOrder = "createdAt", "asc"
	params.Limit = paging.MaxPageSize

	all := make([]domain.Contract, 0)
	for offset := 0; ; offset += paging.MaxPageSize {
		params.Offset = offset
		items, total, err := s.repo.List(ctx, params)
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
	if customerID == uuid.Nil || s.customers == nil {
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

func (s *Service) save(ctx context.Context, contract domain.Contract) (domain.Contract, error) {
	saved, err := s.repo.Update(ctx, contract)
	if err != nil {
		return domain.Contract{}, err
	}
	s.invalidate(ctx, contract.OrganizationID, contract.ID)
	return saved, nil
}

func (s *Service) readVersion(ctx context.Context, tenantID uuid.UUID) (int64, bool) {
	if tenantID == uuid.Nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, cache.Scope(cacheModule, tenantID))
	if err != nil {
		s.log.Warn("contract read model version unavailable", "tenantId", tenantID, "error", err)
		return 0, false
	}
	return version, true
}

func (s *Service) store(ctx context.Context, tenantID uuid.UUID, version int64, key string, value any) {
	if _, err := s.cache.SetIfCurrent(ctx, cache.Scope(cacheModule, tenantID), version, key, value); err != nil {
		s.log.Warn("contract read model not cached", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, tenantID, contractID uuid.UUID) {
	if err := s.cache.Bump(ctx, cache.Scope(cacheModule, tenantID)); err != nil {
		s.log.Warn("contract read model version not bumped", "contractId", contractID, "error", err)
	}
	err := s.cache.Invalidate(ctx,
		cache.Key(cacheModule, tenantID, "detail", contractID.String()),
		cache.Key(cacheModule, tenantID, "deal", "*"),
	)
	if err != nil {
		s.log.Warn("contract read models not invalidated", "contractId", contractID, "error", err)
	}
}

func listParams(tenantID uuid.UUID, req transport.ListContractsRequest) (repository.ListParams, error) {
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         strings.TrimSpace(req.Search),
		Type:           req.Type,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := domain.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				return params, err
			}
			params.Statuses = append(params.Statuses, status)
		}
	}
	var err error
	if params.CustomerID, err = parseID(req.CustomerID, "customerId"); err != nil {
		return params, err
	}
	if params.DealID, err = parseID(req.DealID, "dealId"); err != nil {
		return params, err
	}
	if params.StartFrom, err = parseDay(req.StartFrom); err != nil {
		return params, err
	}
	if params.StartTo, err = parseDay(req.StartTo); err != nil {
		return params, err
	}
	return params, nil
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

func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return &t, nil
}
