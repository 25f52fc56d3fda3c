// Package conversion provides the deal conversion module: deal to contract
// and deal items to sales-ledger lines.
package conversion

import (
	"pipeline_backend/internal/conversion/handler"
	"pipeline_backend/internal/conversion/service"
	"pipeline_backend/internal/events"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the conversion module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the conversion service to its ports.
func NewModule(
	deals service.DealReader,
	customers service.CustomerDirectory,
	contracts service.ContractWriter,
	sales service.SalesWriter,
	eventBus events.Publisher,
	val *validator.Validator,
	cfg config.PipelineConfig,
	log *logger.Logger,
) *Module {
	svc := service.New(deals, customers, contracts, sales, eventBus, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversion"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts conversion routes under the deal they convert.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/deals/:id")
	g.GET("/conversion/validate", m.handler.Validate)
	g.GET("/conversion/contract-draft", m.handler.ContractDraft)
	g.POST("/conversion/contract", m.handler.ConvertToContract)
	g.POST("/conversion/product-sales", m.handler.CreateProductSales)
	g.GET("/contracts", m.handler.ListContracts)
}

var _ apphttp.Module = (*Module)(nil)
