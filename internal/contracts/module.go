// Package contracts provides the contracts bounded context module.
package contracts

import (
	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/contracts/handler"
	"pipeline_backend/internal/contracts/repository"
	"pipeline_backend/internal/contracts/service"
	"pipeline_backend/internal/events"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the contracts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the contracts module.
func NewModule(repo repository.Repository, eventBus events.Publisher, readModels cache.ReadModel, val *validator.Validator, cfg config.PipelineConfig, log *logger.Logger) *Module {
	svc := service.New(repo, eventBus, readModels, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contracts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts contract routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/contracts")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/:id", m.handler.Get)
	g.PATCH("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
	g.POST("/:id/submit", m.handler.Submit)
	g.POST("/:id/approvals", m.handler.RecordApproval)
	g.POST("/:id/terminate", m.handler.Terminate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
