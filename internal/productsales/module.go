// Package productsales provides the sales-ledger module.
package productsales

import (
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/internal/productsales/handler"
	"pipeline_backend/internal/productsales/repository"
	"pipeline_backend/internal/productsales/service"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the product sales module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the product sales module.
func NewModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "product-sales"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts ledger routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/product-sales")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/:id", m.handler.Get)
	g.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
