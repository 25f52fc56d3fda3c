package exports

import (
	"pipeline_backend/internal/adapters/storage"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the exports module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the exports module.
func NewModule(sources Sources, store storage.ExportStore, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(sources, store, val, log)
	return &Module{
		handler: NewHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts export and import routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/exports/:entity", m.handler.Export)

	imports := ctx.Protected.Group("/imports")
	if ctx.BulkLimiter != nil {
		imports.Use(ctx.BulkLimiter.RateLimit())
	}
	imports.POST("/:entity", m.handler.Import)
}

var _ apphttp.Module = (*Module)(nil)
