package service

import (
	"context"
	"time"

	"pipeline_backend/internal/productsales/domain"
	"pipeline_backend/internal/productsales/repository"
	"pipeline_backend/internal/productsales/transport"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service provides business logic for the sales ledger.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new product sales service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create records one ledger line.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateSaleRequest) (domain.ProductSale, error) {
	in := domain.NewSaleInput{
		OrganizationID: tenantID,
		DealID:         req.DealID,
		ProductID:      req.ProductID,
		ProductName:    req.ProductName,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		Discount:       decimal.Zero,
		Tax:            decimal.Zero,
		CustomerID:     req.CustomerID,
		AssignedTo:     req.AssignedTo,
		Notes:          sanitize.Text(req.Notes),
	}
	if req.Discount != nil {
		in.Discount = *req.Discount
	}
	if req.Tax != nil {
		in.Tax = *req.Tax
	}
	if req.SaleDate != nil {
		in.SaleDate = *req.SaleDate
	}
	return s.CreateFromInput(ctx, in)
}

// CreateFromInput records a ledger line built by another module.
func (s *Service) CreateFromInput(ctx context.Context, in domain.NewSaleInput) (domain.ProductSale, error) {
	sale, err := domain.NewSale(in, s.now())
	if err != nil {
		return domain.ProductSale{}, err
	}
	created, err := s.repo.Create(ctx, sale)
	if err != nil {
		return domain.ProductSale{}, err
	}
	s.log.Info("product sale recorded", "saleId", created.ID, "dealId", created.DealID, "productId", created.ProductID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (domain.ProductSale, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("product sale deleted", "saleId", id, "tenantId", tenantID)
	return nil
}

// List returns a page of ledger lines.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListSalesRequest) (paging.Result[domain.ProductSale], error) {
	page, pageSize := paging.Normalize(req.Page, req.PageSize)
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         req.Search,
		Offset:         paging.Offset(page, pageSize),
		Limit:          pageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}

	var err error
	if params.DealID, err = parseID(req.DealID, "dealId"); err != nil {
		return paging.Result[domain.ProductSale]{}, err
	}
	if params.CustomerID, err = parseID(req.CustomerID, "customerId"); err != nil {
		return paging.Result[domain.ProductSale]{}, err
	}
	if params.ProductID, err = parseID(req.ProductID, "productId"); err != nil {
		return paging.Result[domain.ProductSale]{}, err
	}
	if params.SaleFrom, err = parseDay(req.SaleFrom); err != nil {
		return paging.Result[domain.ProductSale]{}, err
	}
	if params.SaleTo, err = parseDay(req.SaleTo); err != nil {
		return paging.Result[domain.ProductSale]{}, err
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return paging.Result[domain.ProductSale]{}, err
	}
	return paging.NewResult(items, total, page, pageSize), nil
}

// ListByDeal returns the ledger lines booked for a deal.
func (s *Service) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]domain.ProductSale, error) {
	return s.collect(ctx, repository.ListParams{OrganizationID: tenantID, DealID: &dealID})
}

// ListAll returns the whole ledger of the tenant, for exports.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]domain.ProductSale, error) {
	return s.collect(ctx, repository.ListParams{OrganizationID: tenantID})
}

func (s *Service) collect(ctx context.Context, params repository.ListParams) ([]domain.ProductSale, error) {
	params.SortBy, params.SortOrder = "createdAt", "asc"
	params.Limit = paging.MaxPageSize

	all := make([]domain.ProductSale, 0)
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
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation("invalid date " + raw)
	}
	return &t, nil
}
