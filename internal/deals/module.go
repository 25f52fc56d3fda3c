// Package deals provides the deal pipeline bounded context module: deals,
// opportunities and their product lines.
package deals

import (
	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/deals/handler"
	"pipeline_backend/internal/deals/repository"
	"pipeline_backend/internal/deals/service"
	"pipeline_backend/internal/events"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the deals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the deals module.
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
	return "deals"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts deal routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/deals")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/stats", m.handler.Stats)
	g.GET("/opportunities", m.handler.ListOpportunities)
	g.GET("/opportunities/:id", m.handler.GetOpportunity)

	bulk := g.Group("/bulk")
	if ctx.BulkLimiter != nil {
		bulk.Use(ctx.BulkLimiter.RateLimit())
	}
	bulk.POST("/update", m.handler.BulkUpdate)
	bulk.POST("/delete", m.handler.BulkDelete)

	g.GET("/:id", m.handler.Get)
	g.GET("/:id/proposal", m.handler.Proposal)
	g.PATCH("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
	g.POST("/:id/stage", m.handler.UpdateStage)
	g.POST("/:id/cancel", m.handler.Cancel)
	g.PUT("/:id/value", m.handler.SetValue)
	g.POST("/:id/items", m.handler.AddItem)
	g.PATCH("/:id/items/:itemId", m.handler.UpdateItem)
	g.DELETE("/:id/items/:itemId", m.handler.RemoveItem)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
