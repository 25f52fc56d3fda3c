// Package catalog provides the product catalog bounded context module.
package catalog

import (
	"pipeline_backend/internal/catalog/handler"
	"pipeline_backend/internal/catalog/repository"
	"pipeline_backend/internal/catalog/service"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/products")
	g.GET("", m.handler.ListProducts)
	g.POST("", m.handler.CreateProduct)
	g.GET("/:id", m.handler.GetProductByID)
	g.PATCH("/:id", m.handler.UpdateProduct)
	g.DELETE("/:id", m.handler.DeleteProduct)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
