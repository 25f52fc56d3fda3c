// Package notification reacts to pipeline events: it emails the people who
// own a lead, deal or contract and streams activity to connected browsers.
// Domain modules only publish events and never see email or SSE.
package notification

import (
	"context"
	"fmt"
	"strings"

	"pipeline_backend/internal/email"
	"pipeline_backend/internal/events"
	apphttp "pipeline_backend/internal/http"
	leaddomain "pipeline_backend/internal/leads/domain"
	"pipeline_backend/internal/notification/sse"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	dealStageClosedWon = "closed_won"
	followUpLayout     = "02 Jan 2006 15:04 MST"
)

// AssigneeDirectory resolves the sales rep behind an assignee ID.
type AssigneeDirectory interface {
	Lookup(id uuid.UUID) (leaddomain.Assignee, bool)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender    email.Sender
	cfg       config.NotificationConfig
	directory AssigneeDirectory
	sse       *sse.Service
	log       *logger.Logger
}

// New creates the notification module. directory may be nil, in which case
// no emails are sent because no recipient can be resolved.
func New(sender email.Sender, cfg config.NotificationConfig, directory AssigneeDirectory, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:    sender,
		cfg:       cfg,
		directory: directory,
		sse:       sse.New(log),
		log:       log,
	}
}

func (m *Module) Name() string {
	return "notifications"
}

// SSE returns the live event stream service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterRoutes mounts the live event stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications/stream", m.sse.Handler(streamUserID, streamOrgID))
}

func streamUserID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	if identity == nil || !identity.IsAuthenticated() {
		return uuid.Nil, false
	}
	return identity.UserID(), true
}

func streamOrgID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	if identity == nil {
		return uuid.Nil, false
	}
	tenantID := httpkit.TenantOrNil(identity)
	return tenantID, tenantID != uuid.Nil
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.LeadFollowUpDue{}.EventName(), m)
	bus.Subscribe(events.DealStageChanged{}.EventName(), m)
	bus.Subscribe(events.DealConvertedToContract{}.EventName(), m)
	bus.Subscribe(events.ProductSalesCreated{}.EventName(), m)
	bus.Subscribe(events.ContractApprovalRecorded{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.LeadFollowUpDue:
		return m.handleLeadFollowUpDue(ctx, e)
	case events.DealStageChanged:
		return m.handleDealStageChanged(ctx, e)
	case events.DealConvertedToContract:
		m.sse.PublishToOrganization(e.TenantID, sse.Event{Type: sse.EventContractCreated, Data: e})
		return nil
	case events.ProductSalesCreated:
		m.sse.PublishToOrganization(e.TenantID, sse.Event{Type: sse.EventProductSalesCreated, Data: e})
		return nil
	case events.ContractApprovalRecorded:
		return m.handleContractApproval(ctx, e)
	default:
		m.log.Warn("unhandled event type in notification module", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	m.sse.Publish(e.AssigneeID, sse.Event{Type: sse.EventLeadAssigned, Message: e.LeadName, Data: e})

	rep, ok := m.recipient(&e.AssigneeID)
	if !ok {
		return nil
	}
	if err := m.sender.SendLeadAssignedEmail(ctx, rep.Email, rep.Name, e.LeadName, m.link("leads", e.LeadID)); err != nil {
		m.log.Error("failed to send lead assigned email", "leadId", e.LeadID, "error", err)
		return err
	}
	m.log.Info("lead assigned email sent", "leadId", e.LeadID, "assigneeId", e.AssigneeID)
	return nil
}

func (m *Module) handleLeadFollowUpDue(ctx context.Context, e events.LeadFollowUpDue) error {
	if e.AssignedTo != nil {
		m.sse.Publish(*e.AssignedTo, sse.Event{Type: sse.EventLeadFollowUpDue, Message: e.LeadName, Data: e})
	}

	rep, ok := m.recipient(e.AssignedTo)
	if !ok {
		m.log.Info("follow-up due without a reachable owner", "leadId", e.LeadID)
		return nil
	}
	dueAt := e.ScheduledAt.UTC().Format(followUpLayout)
	if err := m.sender.SendFollowUpDueEmail(ctx, rep.Email, rep.Name, e.LeadName, dueAt, m.link("leads", e.LeadID)); err != nil {
		m.log.Error("failed to send follow-up email", "leadId", e.LeadID, "error", err)
		return err
	}
	m.log.Info("follow-up email sent", "leadId", e.LeadID)
	return nil
}

func (m *Module) handleDealStageChanged(ctx context.Context, e events.DealStageChanged) error {
	m.sse.PublishToOrganization(e.TenantID, sse.Event{Type: sse.EventDealStageChanged, Message: e.Title, Data: e})
	if e.NewStage != dealStageClosedWon {
		return nil
	}

	rep, ok := m.recipient(e.AssignedTo)
	if !ok {
		return nil
	}
	if err := m.sender.SendDealWonEmail(ctx, rep.Email, rep.Name, e.Title, e.Value, m.link("deals", e.DealID)); err != nil {
		m.log.Error("failed to send deal won email", "dealId", e.DealID, "error", err)
		return err
	}
	m.log.Info("deal won email sent", "dealId", e.DealID)
	return nil
}

func (m *Module) handleContractApproval(ctx context.Context, e events.ContractApprovalRecorded) error {
	m.sse.PublishToOrganization(e.TenantID, sse.Event{Type: sse.EventContractApproval, Message: e.ContractNumber, Data: e})
	if e.Status == "pending" {
		return nil
	}

	rep, ok := m.recipient(e.AssignedTo)
	if !ok {
		return nil
	}
	err := m.sender.SendContractDecisionEmail(ctx, rep.Email, rep.Name, e.ContractNumber, e.Status, e.Comments, m.link("contracts", e.ContractID))
	if err != nil {
		m.log.Error("failed to send contract decision email", "contractId", e.ContractID, "error", err)
		return err
	}
	return nil
}

func (m *Module) recipient(id *uuid.UUID) (leaddomain.Assignee, bool) {
	if id == nil || m.directory == nil {
		return leaddomain.Assignee{}, false
	}
	rep, ok := m.directory.Lookup(*id)
	if !ok || strings.TrimSpace(rep.Email) == "" {
		return leaddomain.Assignee{}, false
	}
	return rep, true
}

func (m *Module) link(section string, id uuid.UUID) string {
	base := ""
	if m.cfg != nil {
		base = strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	}
	return fmt.Sprintf("%s/app/%s/%s", base, section, id)
}

// Close disconnects live streams.
func (m *Module) Close() {
	m.sse.Close()
}

var _ apphttp.Module = (*Module)(nil)
