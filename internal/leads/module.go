// Package leads provides the lead lifecycle bounded context module.
package leads

import (
	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/events"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/internal/leads/assignment"
	"pipeline_backend/internal/leads/handler"
	"pipeline_backend/internal/leads/repository"
	"pipeline_backend/internal/leads/service"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	rules   *assignment.Config
}

// NewModule creates and initializes the leads module. The repository is
// chosen by the composition root (postgres or memory).
func NewModule(repo repository.Repository, eventBus events.Publisher, readModels cache.ReadModel, val *validator.Validator, cfg config.AssignmentConfig, log *logger.Logger) (*Module, error) {
	svc := service.New(repo, eventBus, readModels, log)

	rules, err := assignment.Load(cfg.GetAssignmentRulesPath(), repo)
	if err != nil {
		return nil, err
	}
	svc.SetAssigneeSource(rules)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
		rules:   rules,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// Assignees returns the loaded sales roster.
func (m *Module) Assignees() *assignment.Config {
	return m.rules
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/leads")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/summary", m.handler.Summary)
	g.GET("/:id", m.handler.Get)
	g.PATCH("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
	g.POST("/:id/status", m.handler.TransitionStatus)
	g.POST("/:id/stage", m.handler.AdvanceStage)
	g.POST("/:id/score/recalculate", m.handler.RecalculateScore)
	g.PUT("/:id/score", m.handler.SetScore)
	g.GET("/:id/readiness", m.handler.Readiness)
	g.POST("/:id/assign", m.handler.Assign)
	g.POST("/:id/follow-up", m.handler.ScheduleFollowUp)
	g.POST("/:id/convert", m.handler.Convert)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
