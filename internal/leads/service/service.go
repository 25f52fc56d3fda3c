// Package service implements the lead lifecycle use cases on top of the pure
// domain rules: persistence, events, caching, assignment and follow-ups.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/events"
	"pipeline_backend/internal/leads/domain"
	"pipeline_backend/internal/leads/repository"
	"pipeline_backend/internal/leads/transport"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/phone"
	"pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const cacheModule = "leads"

// AssigneeSource provides the routing rules and the current assignee pool.
type AssigneeSource interface {
	Rules() []domain.AssignmentRule
	Pool(ctx context.Context, organizationID uuid.UUID) ([]domain.Assignee, error)
	Lookup(id uuid.UUID) (domain.Assignee, bool)
}

// FollowUpScheduler enqueues a reminder for when a follow-up is due.
type FollowUpScheduler interface {
	ScheduleLeadFollowUp(ctx context.Context, tenantID, leadID uuid.UUID, runAt time.Time) error
}

// CustomerDraft is the customer created from a lead's company data.
type CustomerDraft struct {
	Name     string
	Email    string
	Phone    string
	Industry string
}

// CustomerProvisioner resolves the customer a lead converts into.
type CustomerProvisioner interface {
	CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
	CreateCustomer(ctx context.Context, tenantID uuid.UUID, draft CustomerDraft) (uuid.UUID, error)
	DiscardCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error
}

// DealDraft describes the deal opened when a lead converts.
type DealDraft struct {
	LeadID     uuid.UUID
	CustomerID uuid.UUID
	Title      string
	Value      decimal.Decimal
	Source     string
	Campaign   string
	AssignedTo *uuid.UUID
}

// DealOpener opens a deal for a converted lead.
type DealOpener interface {
	OpenDealFromLead(ctx context.Context, tenantID uuid.UUID, draft DealDraft) (uuid.UUID, error)
	DiscardDeal(ctx context.Context, tenantID, dealID uuid.UUID) error
}

// Service provides business logic for leads.
type Service struct {
	repo      repository.Repository
	eventBus  events.Publisher
	cache     cache.ReadModel
	assignees AssigneeSource
	followUps FollowUpScheduler
	customers CustomerProvisioner
	deals     DealOpener
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new leads service. Optional collaborators are attached with the Set* methods.
func New(repo repository.Repository, eventBus events.Publisher, readModels cache.ReadModel, log *logger.Logger) *Service {
	if readModels == nil {
		readModels = cache.Noop{}
	}
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		cache:    readModels,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetAssigneeSource enables rule-based auto-assignment.
func (s *Service) SetAssigneeSource(src AssigneeSource) {
	s.assignees = src
}

// SetFollowUpScheduler enables follow-up reminders.
func (s *Service) SetFollowUpScheduler(sch FollowUpScheduler) {
	s.followUps = sch
}

// SetCustomerProvisioner enables lead conversion.
func (s *Service) SetCustomerProvisioner(p CustomerProvisioner) {
	s.customers = p
}

// SetDealOpener enables opening a deal on conversion.
func (s *Service) SetDealOpener(d DealOpener) {
	s.deals = d
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create captures a new lead.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateLeadRequest) (domain.Lead, error) {
	lead := domain.NewLead(tenantID, s.now())
	lead.FirstName = strings.TrimSpace(req.FirstName)
	lead.LastName = strings.TrimSpace(req.LastName)
	lead.Email = strings.ToLower(strings.TrimSpace(req.Email))
	lead.Phone = phone.NormalizeE164(req.Phone)
	lead.Mobile = phone.NormalizeE164(req.Mobile)
	lead.JobTitle = strings.TrimSpace(req.JobTitle)
	lead.CompanyName = strings.TrimSpace(req.CompanyName)
	lead.Industry = strings.TrimSpace(req.Industry)
	lead.CompanySize = strings.TrimSpace(req.CompanySize)
	lead.Source = strings.TrimSpace(req.Source)
	lead.Campaign = strings.TrimSpace(req.Campaign)
	lead.BudgetRange = strings.TrimSpace(req.BudgetRange)
	lead.Timeline = strings.TrimSpace(req.Timeline)
	lead.AssignedTo = req.AssignedTo
	lead.NextFollowUp = req.NextFollowUp
	lead.Notes = sanitize.Text(req.Notes)

	if lead.DisplayName() == "" {
		return domain.Lead{}, apperr.Validation("a lead needs a name or a company name")
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}

	s.invalidate(ctx, tenantID)
	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     created.ID,
		TenantID:   tenantID,
		Source:     created.Source,
		AssignedTo: created.AssignedTo,
	})
	s.log.Info("lead created", "leadId", created.ID, "tenantId", tenantID)
	return created, nil
}

// Get retrieves a lead by ID.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (domain.Lead, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// Update patches contact and qualification data. Lifecycle fields change only
// through their dedicated operations.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateLeadRequest) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Lead{}, err
	}

	applyString(&lead.FirstName, req.FirstName)
	applyString(&lead.LastName, req.LastName)
	applyString(&lead.JobTitle, req.JobTitle)
	applyString(&lead.CompanyName, req.CompanyName)
	applyString(&lead.Industry, req.Industry)
	applyString(&lead.CompanySize, req.CompanySize)
	applyString(&lead.Source, req.Source)
	applyString(&lead.Campaign, req.Campaign)
	applyString(&lead.BudgetRange, req.BudgetRange)
	applyString(&lead.Timeline, req.Timeline)
	if req.Email != nil {
		lead.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Mobile != nil {
		lead.Mobile = phone.NormalizeE164(*req.Mobile)
	}
	if req.Notes != nil {
		lead.Notes = sanitize.Text(*req.Notes)
	}
	if lead.DisplayName() == "" {
		return domain.Lead{}, apperr.Validation("a lead needs a name or a company name")
	}
	lead.UpdatedAt = s.now()

	return s.save(ctx, lead)
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	s.log.Info("lead deleted", "leadId", id, "tenantId", tenantID)
	return nil
}

// List returns a page of leads matching the filters.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListLeadsRequest) (paging.Result[domain.Lead], error) {
	page, pageSize := paging.Normalize(req.Page, req.PageSize)

	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         strings.TrimSpace(req.Search),
		Source:         strings.TrimSpace(req.Source),
		MinScore:       req.MinScore,
		Offset:         paging.Offset(page, pageSize),
		Limit:          pageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}

	for _, raw := range splitFilter(req.Status) {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return paging.Result[domain.Lead]{}, err
		}
		params.Statuses = append(params.Statuses, status)
	}
	for _, raw := range splitFilter(req.Stage) {
		stage, err := domain.ParseStage(raw)
		if err != nil {
			return paging.Result[domain.Lead]{}, err
		}
		params.Stages = append(params.Stages, stage)
	}
	if req.AssignedTo != "" {
		assignee, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return paging.Result[domain.Lead]{}, apperr.Validation("invalid assignedTo")
		}
		params.AssignedTo = &assignee
	}
	var err error
	if params.CreatedFrom, err = parseDate(req.CreatedFrom, false); err != nil {
		return paging.Result[domain.Lead]{}, err
	}
	if params.CreatedTo, err = parseDate(req.CreatedTo, true); err != nil {
		return paging.Result[domain.Lead]{}, err
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return paging.Result[domain.Lead]{}, err
	}
	return paging.NewResult(items, total, page, pageSize), nil
}

// Summary returns lead counts by status and stage for the tenant.
func (s *Service) Summary(ctx context.Context, tenantID uuid.UUID) (repository.Summary, error) {
	key := cache.Key(cacheModule, tenantID, "summary")

	var cached repository.Summary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	scope := cache.Scope(cacheModule, tenantID)
	version, verr := s.cache.Version(ctx, scope)
	summary, err := s.repo.Summary(ctx, tenantID)
	if err != nil {
		return repository.Summary{}, err
	}
	if verr == nil && tenantID != uuid.Nil {
		if _, err := s.cache.SetIfCurrent(ctx, scope, version, key, summary); err != nil {
			s.log.Warn("lead summary not cached", "error", err)
		}
	}
	return summary, nil
}

// TransitionStatus applies a status change. Converting through this path
// requires an explicit customer; ConvertLead provisions one instead.
func (s *Service) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req transport.TransitionStatusRequest) (domain.Lead, error) {
	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Lead{}, err
	}

	if to == domain.StatusConverted && req.CustomerID != nil && s.customers != nil {
		exists, err := s.customers.CustomerExists(ctx, tenantID, *req.CustomerID)
		if err != nil {
			return domain.Lead{}, err
		}
		if !exists {
			return domain.Lead{}, apperr.Validation("customer does not exist")
		}
	}

	oldStatus := lead.Status
	next, err := domain.TransitionStatus(lead, to, req.CustomerID, s.now())
	if err != nil {
		return domain.Lead{}, err
	}
	saved, err := s.save(ctx, next)
	if err != nil {
		return domain.Lead{}, err
	}

	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    saved.ID,
		TenantID:  tenantID,
		OldStatus: string(oldStatus),
		NewStatus: string(saved.Status),
	})
	s.log.Info("lead status changed", "leadId", saved.ID, "from", oldStatus, "to", saved.Status)
	return saved, nil
}

// AdvanceStage moves the lead forward in the buyer journey.
func (s *Service) AdvanceStage(ctx context.Context, tenantID, id uuid.UUID, req transport.AdvanceStageRequest) (domain.Lead, error) {
	to, err := domain.ParseStage(req.Stage)
	if err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Stage == to {
		return lead, nil
	}

	next, err := domain.AdvanceStage(lead, to, s.now())
	if err != nil {
		return domain.Lead{}, err
	}
	return s.save(ctx, next)
}

// RecalculateScore recomputes and persists the lead score.
func (s *Service) RecalculateScore(ctx context.Context, tenantID, id uuid.UUID) (domain.ScoreResult, error) {
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	now := s.now()
	result := domain.RecalculateScore(lead, now)
	if result.Score != lead.LeadScore {
		lead.LeadScore = result.Score
		lead.UpdatedAt = now
		if _, err := s.save(ctx, lead); err != nil {
			return domain.ScoreResult{}, err
		}
	}
	return result, nil
}

// SetScore applies a manual score override.
func (s *Service) SetScore(ctx context.Context, tenantID, id uuid.UUID, score int) (domain.Lead, error) {
	if err := domain.ValidateScore(score); err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Lead{}, err
	}
	next, err := domain.SetScore(lead, score, s.now())
	if err != nil {
		return domain.Lead{}, err
	}
	return s.save(ctx, next)
}

// Readiness reports every issue blocking conversion.
func (s *Service) Readiness(ctx context.Context, tenantID, id uuid.UUID) (domain.Readiness, error) {
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Readiness{}, err
	}
	return domain.CheckConversionReadiness(lead), nil
}

// Assign sets the lead owner. Without an explicit assignee the routing rules decide.
func (s *Service) Assign(ctx context.Context, tenantID, id uuid.UUID, assigneeID *uuid.UUID) (transport.AssignmentResponse, error) {
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}
	if lead.IsTerminal() {
		return transport.AssignmentResponse{}, apperr.InvalidTransition(fmt.Sprintf("lead is %s and cannot be reassigned", lead.Status))
	}

	automatic := assigneeID == nil
	var target uuid.UUID
	if automatic {
		if s.assignees == nil {
			return transport.AssignmentResponse{}, apperr.Assignment("no assignment rules are configured")
		}
		pool, err := s.assignees.Pool(ctx, tenantID)
		if err != nil {
			return transport.AssignmentResponse{}, err
		}
		target, err = domain.AutoAssign(lead, s.assignees.Rules(), pool)
		if err != nil {
			return transport.AssignmentResponse{}, err
		}
	} else {
		target = *assigneeID
		if s.assignees != nil {
			if member, ok := s.assignees.Lookup(target); ok && !member.Active {
				return transport.AssignmentResponse{}, apperr.Assignment(fmt.Sprintf("assignee %s is not active", member.Name))
			}
		}
	}

	lead.AssignedTo = &target
	lead.UpdatedAt = s.now()
	saved, err := s.save(ctx, lead)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}

	s.eventBus.Publish(ctx, events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     saved.ID,
		TenantID:   tenantID,
		AssigneeID: target,
		LeadName:   saved.DisplayName(),
		Automatic:  automatic,
	})
	s.log.Info("lead assigned", "leadId", saved.ID, "assigneeId", target, "automatic", automatic)
	return transport.AssignmentResponse{LeadID: saved.ID, AssigneeID: target, Automatic: automatic}, nil
}

// ScheduleFollowUp sets the next follow-up and enqueues its reminder.
func (s *Service) ScheduleFollowUp(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (domain.Lead, error) {
	now := s.now()
	if !at.After(now) {
		return domain.Lead{}, apperr.Validation("follow-up must be scheduled in the future")
	}
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.IsTerminal() {
		return domain.Lead{}, apperr.InvalidTransition(fmt.Sprintf("lead is %s and needs no follow-up", lead.Status))
	}

	scheduled := at.UTC()
	lead.NextFollowUp = &scheduled
	lead.UpdatedAt = now
	saved, err := s.save(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}

	if s.followUps != nil {
		if err := s.followUps.ScheduleLeadFollowUp(ctx, tenantID, saved.ID, scheduled); err != nil {
			s.log.Error("failed to enqueue follow-up reminder", "leadId", saved.ID, "error", err)
		}
	}
	return saved, nil
}

// ConvertLead turns a qualified lead into a customer, optionally opening a deal.
// A failed step discards the customer and deal created before it, so the lead
// stays qualified with nothing left behind and the call can be retried.
func (s *Service) ConvertLead(ctx context.Context, tenantID, id uuid.UUID, req transport.ConvertLeadRequest) (transport.ConvertLeadResponse, error) {
	if s.customers == nil {
		return transport.ConvertLeadResponse{}, apperr.Internal("customer provisioning is not configured")
	}
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ConvertLeadResponse{}, err
	}

	readiness := domain.CheckConversionReadiness(lead)
	if !readiness.Ready {
		return transport.ConvertLeadResponse{}, apperr.Validation("lead is not ready for conversion").WithDetails(readiness.Issues)
	}

	var (
		customerID      uuid.UUID
		createdCustomer bool
		dealID          *uuid.UUID
	)
	if req.CreateDeal && s.deals == nil {
		return transport.ConvertLeadResponse{}, apperr.Internal("deal creation is not configured")
	}
	if req.CustomerID != nil {
		exists, err := s.customers.CustomerExists(ctx, tenantID, *req.CustomerID)
		if err != nil {
			return transport.ConvertLeadResponse{}, err
		}
		if !exists {
			return transport.ConvertLeadResponse{}, apperr.Validation("customer does not exist")
		}
		customerID = *req.CustomerID
	} else {
		customerID, err = s.customers.CreateCustomer(ctx, tenantID, CustomerDraft{
			Name:     lead.CompanyName,
			Email:    lead.Email,
			Phone:    firstNonEmpty(lead.Phone, lead.Mobile),
			Industry: lead.Industry,
		})
		if err != nil {
			return transport.ConvertLeadResponse{}, err
		}
		createdCustomer = true
	}

	rollback := func(cause error) (transport.ConvertLeadResponse, error) {
		s.discardConversion(ctx, tenantID, lead.ID, customerID, createdCustomer, dealID)
		return transport.ConvertLeadResponse{}, cause
	}

	converted, err := domain.TransitionStatus(lead, domain.StatusConverted, &customerID, s.now())
	if err != nil {
		return rollback(err)
	}
	converted.Stage = domain.StagePurchase

	if req.CreateDeal {
		title := strings.TrimSpace(req.DealTitle)
		if title == "" {
			title = lead.CompanyName
		}
		value := decimal.Zero
		if req.DealValue != nil {
			value = *req.DealValue
		}
		newDealID, err := s.deals.OpenDealFromLead(ctx, tenantID, DealDraft{
			LeadID:     lead.ID,
			CustomerID: customerID,
			Title:      title,
			Value:      value,
			Source:     lead.Source,
			Campaign:   lead.Campaign,
			AssignedTo: lead.AssignedTo,
		})
		if err != nil {
			return rollback(err)
		}
		dealID = &newDealID
	}

	saved, err := s.save(ctx, converted)
	if err != nil {
		return rollback(err)
	}

	s.eventBus.Publish(ctx, events.LeadConverted{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     saved.ID,
		TenantID:   tenantID,
		CustomerID: customerID,
		DealID:     dealID,
	})
	s.log.Info("lead converted", "leadId", saved.ID, "customerId", customerID)
	return transport.ConvertLeadResponse{LeadID: saved.ID, CustomerID: customerID, DealID: dealID}, nil
}

// discardConversion removes what a failed conversion created. The deal goes
// first because customers with deals cannot be deleted.
func (s *Service) discardConversion(ctx context.Context, tenantID, leadID, customerID uuid.UUID, createdCustomer bool, dealID *uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	if dealID != nil {
		if err := s.deals.DiscardDeal(ctx, tenantID, *dealID); err != nil {
			s.log.Error("failed to discard deal of aborted conversion", "leadId", leadID, "dealId", *dealID, "error", err)
		}
	}
	if createdCustomer {
		if err := s.customers.DiscardCustomer(ctx, tenantID, customerID); err != nil {
			s.log.Error("failed to discard customer of aborted conversion", "leadId", leadID, "customerId", customerID, "error", err)
		}
	}
}

// Import creates a lead from an already-parsed import row.
func (s *Service) Import(ctx context.Context, tenantID uuid.UUID, req transport.CreateLeadRequest) error {
	_, err := s.Create(ctx, tenantID, req)
	return err
}

// ListAll streams every lead of the tenant in pages, for exports.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]domain.Lead, error) {
	all := make([]domain.Lead, 0)
	for offset := 0; ; offset += paging.MaxPageSize {
		items, total, err := s.repo.List(ctx, repository.ListParams{
			OrganizationID: tenantID,
			Offset:         offset,
			Limit:          paging.MaxPageSize,
			SortBy:         "createdAt",
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

func (s *Service) save(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	saved, err := s.repo.Update(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}
	s.invalidate(ctx, lead.OrganizationID)
	return saved, nil
}

func (s *Service) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cache.Bump(ctx, cache.Scope(cacheModule, tenantID)); err != nil {
		s.log.Warn("lead read model version not bumped", "error", err)
	}
	if err := s.cache.Invalidate(ctx, cache.Key(cacheModule, tenantID, "summary")); err != nil {
		s.log.Warn("lead read models not invalidated", "error", err)
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func splitFilter(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A bare end date covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date %q", raw))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
