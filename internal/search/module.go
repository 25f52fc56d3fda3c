// Package search provides one query box across leads, deals, customers and contracts.
package search

import (
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/internal/search/handler"
	"pipeline_backend/internal/search/service"
	"pipeline_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(finders service.Finders, val *validator.Validator) *Module {
	svc := service.New(finders)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/search")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
