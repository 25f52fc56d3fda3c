package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pipeline_backend/internal/catalog/repository"
	"pipeline_backend/internal/catalog/transport"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/sanitize"
)

// Service provides business logic for catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetProductByID retrieves a product by ID.
func (s *Service) GetProductByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (repository.Product, error) {
	return s.repo.GetProductByID(ctx, tenantID, id)
}

// ListProductsWithFilters retrieves products with search and pagination.
func (s *Service) ListProductsWithFilters(ctx context.Context, tenantID uuid.UUID, req transport.ListProductsRequest) (paging.Result[repository.Product], error) {
	page, pageSize := paging.Normalize(req.Page, req.PageSize)

	items, total, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
		OrganizationID: tenantID,
		Search:         strings.TrimSpace(req.Search),
		ActiveOnly:     req.ActiveOnly,
		Offset:         paging.Offset(page, pageSize),
		Limit:          pageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		return paging.Result[repository.Product]{}, err
	}
	return paging.NewResult(items, total, page, pageSize), nil
}

// CreateProduct creates a new product.
func (s *Service) CreateProduct(ctx context.Context, tenantID uuid.UUID, req transport.CreateProductRequest) (repository.Product, error) {
	if req.UnitPrice.IsNegative() {
		return repository.Product{}, apperr.Validation("unit price cannot be negative")
	}
	now := time.Now().UTC()
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	product, err := s.repo.CreateProduct(ctx, repository.Product{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		SKU:            strings.TrimSpace(req.SKU),
		Name:           strings.TrimSpace(req.Name),
		Description:    sanitize.Text(req.Description),
		UnitPrice:      req.UnitPrice.Round(2),
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return repository.Product{}, err
	}

	s.log.Info("product created", "id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct updates an existing product.
func (s *Service) UpdateProduct(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, req transport.UpdateProductRequest) (repository.Product, error) {
	product, err := s.repo.GetProductByID(ctx, tenantID, id)
	if err != nil {
		return repository.Product{}, err
	}
	if req.SKU != nil {
		product.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = sanitize.Text(*req.Description)
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return repository.Product{}, apperr.Validation("unit price cannot be negative")
		}
		product.UnitPrice = req.UnitPrice.Round(2)
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return repository.Product{}, err
	}
	s.log.Info("product updated", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

// DeleteProduct deletes a product. Existing sale items keep their snapshot.
func (s *Service) DeleteProduct(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "id", id)
	return nil
}

// ListAll returns every product of the tenant, for exports.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]repository.Product, error) {
	all := make([]repository.Product, 0)
	for offset := 0; ; offset += paging.MaxPageSize {
		items, total, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
			OrganizationID: tenantID,
			Offset:         offset,
			Limit:          paging.MaxPageSize,
			SortBy:         "name",
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
