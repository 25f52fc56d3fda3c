package service

import (
	"context"
	"strings"
	"time"

	"pipeline_backend/internal/customers/repository"
	"pipeline_backend/internal/customers/transport"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/phone"

	"github.com/google/uuid"
)

// DealUsage reports whether deals still reference a customer.
type DealUsage interface {
	CustomerHasDeals(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
}

// Service provides business logic for customers.
type Service struct {
	repo  repository.Repository
	usage DealUsage
	log   *logger.Logger
}

// New creates a new customers service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetDealUsage guards deletes against customers that still own deals.
func (s *Service) SetDealUsage(usage DealUsage) {
	s.usage = usage
}

// Create adds a customer.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateCustomerRequest) (repository.Customer, error) {
	now := time.Now().UTC()
	customer := repository.Customer{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          phone.NormalizeE164(req.Phone),
		Industry:       strings.TrimSpace(req.Industry),
		Website:        strings.TrimSpace(req.Website),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if customer.Name == "" {
		return repository.Customer{}, apperr.Validation("customer name is required")
	}

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return repository.Customer{}, err
	}
	s.log.Info("customer created", "customerId", created.ID, "tenantId", tenantID)
	return created, nil
}

// Get retrieves a customer by ID.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (repository.Customer, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// Exists reports whether the customer exists in the tenant.
func (s *Service) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, tenantID, id)
}

// Update patches a customer.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateCustomerRequest) (repository.Customer, error) {
	customer, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Customer{}, err
	}
	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		customer.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		customer.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Industry != nil {
		customer.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Website != nil {
		customer.Website = strings.TrimSpace(*req.Website)
	}
	if customer.Name == "" {
		return repository.Customer{}, apperr.Validation("customer name is required")
	}
	customer.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, customer)
}

// Delete removes a customer that no deal references.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if s.usage != nil {
		used, err := s.usage.CustomerHasDeals(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.Conflict("customer still has deals")
		}
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("customer deleted", "customerId", id, "tenantId", tenantID)
	return nil
}

// List returns a page of customers.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListCustomersRequest) (paging.Result[repository.Customer], error) {
	page, pageSize := paging.Normalize(req.Page, req.PageSize)
	items, total, err := s.repo.List(ctx, repository.ListParams{
		OrganizationID: tenantID,
		Search:         strings.TrimSpace(req.Search),
		Industry:       strings.TrimSpace(req.Industry),
		Offset:         paging.Offset(page, pageSize),
		Limit:          pageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		return paging.Result[repository.Customer]{}, err
	}
	return paging.NewResult(items, total, page, pageSize), nil
}

// ListAll returns every customer of the tenant, for exports.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]repository.Customer, error) {
	all := make([]repository.Customer, 0)
	for offset := 0; ; offset += paging.MaxPageSize {
		items, total, err := s.repo.List(ctx, repository.ListParams{
			OrganizationID: tenantID,
			Offset:         offset,
			Limit:          paging.MaxPageSize,
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
