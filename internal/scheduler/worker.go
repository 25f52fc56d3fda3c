package scheduler

import (
	"context"
	"fmt"
	"time"

	"pipeline_backend/internal/events"
	leaddomain "pipeline_backend/internal/leads/domain"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadReader loads the lead a reminder belongs to.
type LeadReader interface {
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (leaddomain.Lead, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	followUps *FollowUpHandler
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads LeadReader, bus events.Publisher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		followUps: NewFollowUpHandler(leads, bus, log),
		log:       log,
	}

	mux.HandleFunc(TaskLeadFollowUpDue, w.followUps.Handle)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// FollowUpHandler turns due follow-up tasks into LeadFollowUpDue events.
type FollowUpHandler struct {
	leads LeadReader
	bus   events.Publisher
	log   *logger.Logger
}

func NewFollowUpHandler(leads LeadReader, bus events.Publisher, log *logger.Logger) *FollowUpHandler {
	return &FollowUpHandler{leads: leads, bus: bus, log: log}
}

// Handle publishes the reminder unless it went stale: the lead was deleted,
// closed, or its follow-up moved to another time.
func (h *FollowUpHandler) Handle(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadFollowUpPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	scheduledAt, err := time.Parse(time.RFC3339, payload.ScheduledAt)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	lead, err := h.leads.GetByID(ctx, tenantID, leadID)
	if apperr.Is(err, apperr.KindNotFound) {
		h.log.Info("follow-up skipped, lead is gone", "leadId", leadID)
		return nil
	}
	if err != nil {
		return err
	}
	if lead.IsTerminal() || lead.NextFollowUp == nil || !lead.NextFollowUp.UTC().Truncate(time.Second).Equal(scheduledAt) {
		h.log.Info("follow-up skipped, reminder is stale", "leadId", leadID)
		return nil
	}

	if h.bus == nil {
		return nil
	}
	h.bus.Publish(ctx, events.LeadFollowUpDue{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		TenantID:    tenantID,
		LeadName:    lead.DisplayName(),
		AssignedTo:  lead.AssignedTo,
		ScheduledAt: scheduledAt,
	})
	return nil
}
