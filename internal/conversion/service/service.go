// Package service orchestrates deal conversions: a won deal becomes a
// contract, and selected deal items become sales-ledger lines.
package service

import (
	"context"
	"fmt"
	"time"

	"pipeline_backend/internal/conversion/domain"
	"pipeline_backend/internal/conversion/transport"
	"pipeline_backend/internal/events"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCurrency    = "EUR"
	defaultConcurrency = 8
)

// DealReader loads the deal snapshot to convert.
type DealReader interface {
	GetDeal(ctx context.Context, tenantID, dealID uuid.UUID) (domain.Deal, error)
}

// CustomerDirectory resolves customer display names for drafts.
type CustomerDirectory interface {
	CustomerName(ctx context.Context, tenantID, customerID uuid.UUID) (string, error)
}

// ContractWriter persists drafts and lists the contracts of a deal.
type ContractWriter interface {
	CreateContract(ctx context.Context, tenantID uuid.UUID, draft domain.ContractDraft) (domain.ContractSummary, error)
	ListContractsForDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]domain.ContractSummary, error)
}

// SalesWriter records one sales-ledger line.
type SalesWriter interface {
	RecordSale(ctx context.Context, tenantID uuid.UUID, line domain.SaleLine) (uuid.UUID, error)
}

// Service coordinates the conversion ports.
type Service struct {
	deals       DealReader
	customers   CustomerDirectory
	contracts   ContractWriter
	sales       SalesWriter
	eventBus    events.Publisher
	termDays    int
	currency    string
	concurrency int
	log         *logger.Logger
	now         func() time.Time
}

// New creates a conversion service. customers may be nil.
func New(deals DealReader, customers CustomerDirectory, contracts ContractWriter, sales SalesWriter, eventBus events.Publisher, cfg config.PipelineConfig, log *logger.Logger) *Service {
	s := &Service{
		deals:       deals,
		customers:   customers,
		contracts:   contracts,
		sales:       sales,
		eventBus:    eventBus,
		termDays:    domain.DefaultTermDays,
		currency:    defaultCurrency,
		concurrency: defaultConcurrency,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if cfg != nil {
		if cfg.GetContractTermDays() > 0 {
			s.termDays = cfg.GetContractTermDays()
		}
		if cfg.GetDefaultCurrency() != "" {
			s.currency = cfg.GetDefaultCurrency()
		}
		if cfg.GetBulkConcurrency() > 0 {
			s.concurrency = cfg.GetBulkConcurrency()
		}
	}
	return s
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Validate reports every reason the deal cannot become a contract.
func (s *Service) Validate(ctx context.Context, tenantID, dealID uuid.UUID) (domain.Validation, error) {
	deal, err := s.deals.GetDeal(ctx, tenantID, dealID)
	if err != nil {
		return domain.Validation{}, err
	}
	return domain.ValidateForConversion(deal), nil
}

// PrepareDraft returns the contract the deal would produce, without saving it.
func (s *Service) PrepareDraft(ctx context.Context, tenantID, dealID uuid.UUID) (domain.ContractDraft, error) {
	deal, err := s.deals.GetDeal(ctx, tenantID, dealID)
	if err != nil {
		return domain.ContractDraft{}, err
	}
	return s.draft(ctx, tenantID, deal), nil
}

func (s *Service) draft(ctx context.Context, tenantID uuid.UUID, deal domain.Deal) domain.ContractDraft {
	opts := domain.DraftOptions{Today: s.now(), TermDays: s.termDays, Currency: s.currency}
	if s.customers != nil && deal.CustomerID != uuid.Nil {
		name, err := s.customers.CustomerName(ctx, tenantID, deal.CustomerID)
		if err != nil {
			s.log.Warn("customer name unavailable for contract draft", "dealId", deal.ID, "error", err)
		}
		opts.CustomerName = name
	}
	return domain.PrepareContractDraft(deal, opts)
}

// ConvertToContract validates the deal, prepares the draft, applies the
// overrides and stores the contract.
func (s *Service) ConvertToContract(ctx context.Context, tenantID, dealID uuid.UUID, req transport.ConvertRequest) (transport.ConvertResponse, error) {
	deal, err := s.deals.GetDeal(ctx, tenantID, dealID)
	if err != nil {
		return transport.ConvertResponse{}, err
	}
	if v := domain.ValidateForConversion(deal); !v.IsValid {
		return transport.ConvertResponse{}, apperr.Validation("deal cannot be converted to a contract").WithDetails(v.Errors)
	}

	draft := req.Overrides().Apply(s.draft(ctx, tenantID, deal))
	contract, err := s.contracts.CreateContract(ctx, tenantID, draft)
	if err != nil {
		return transport.ConvertResponse{}, err
	}

	s.eventBus.Publish(ctx, events.DealConvertedToContract{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     deal.ID,
		ContractID: contract.ID,
		TenantID:   tenantID,
	})
	s.log.Info("deal converted to contract", "dealId", deal.ID, "contractId", contract.ID, "number", contract.ContractNumber)
	return transport.ConvertResponse{Contract: contract, Draft: draft}, nil
}

// ListLinkedContracts returns the contracts created from the deal.
func (s *Service) ListLinkedContracts(ctx context.Context, tenantID, dealID uuid.UUID) ([]domain.ContractSummary, error) {
	if _, err := s.deals.GetDeal(ctx, tenantID, dealID); err != nil {
		return nil, err
	}
	linked, err := s.contracts.ListContractsForDeal(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	if linked == nil {
		linked = []domain.ContractSummary{}
	}
	return linked, nil
}

// CreateSalesFromItems writes one ledger line per selected item. Every line
// is attempted; failures are collected in selection order.
func (s *Service) CreateSalesFromItems(ctx context.Context, tenantID, dealID uuid.UUID, req transport.CreateSalesRequest) (transport.SalesResult, error) {
	if len(req.ItemIDs) == 0 {
		return transport.SalesResult{}, apperr.Validation("select at least one item")
	}
	deal, err := s.deals.GetDeal(ctx, tenantID, dealID)
	if err != nil {
		return transport.SalesResult{}, err
	}
	if deal.CustomerID == uuid.Nil {
		return transport.SalesResult{}, apperr.Validation("deal has no customer")
	}

	saleDate := s.now()
	if req.SaleDate != nil {
		saleDate = *req.SaleDate
	}
	lines, unknown := domain.SaleLines(deal, dedupe(req.ItemIDs), saleDate, req.Notes)

	created := make([]uuid.UUID, len(lines))
	failures := make([]error, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			created[i], failures[i] = s.sales.RecordSale(gctx, tenantID, line)
			return nil
		})
	}
	_ = g.Wait()

	result := transport.SalesResult{CreatedIDs: []uuid.UUID{}, Errors: []string{}}
	for i, line := range lines {
		if failures[i] != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", line.ProductName, failures[i]))
			continue
		}
		result.CreatedIDs = append(result.CreatedIDs, created[i])
	}
	for _, id := range unknown {
		result.Errors = append(result.Errors, fmt.Sprintf("item %s: not found on deal", id))
	}
	result.CreatedCount = len(result.CreatedIDs)

	s.eventBus.Publish(ctx, events.ProductSalesCreated{
		BaseEvent:    events.NewBaseEvent(),
		DealID:       deal.ID,
		TenantID:     tenantID,
		CreatedCount: result.CreatedCount,
		FailedCount:  len(result.Errors),
	})
	s.log.BulkOutcome("conversion.product_sales", result.CreatedCount, len(result.Errors))
	return result, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
