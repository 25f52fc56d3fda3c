package webhook

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	leaddomain "pipeline_backend/internal/leads/domain"
	leadtransport "pipeline_backend/internal/leads/transport"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	googleLeadSource = "google-leads"
	duplicateWindow  = 60 * time.Second
	unknownName      = "Unknown"
)

// LeadCreator is satisfied by the leads service.
type LeadCreator interface {
	Create(ctx context.Context, tenantID uuid.UUID, req leadtransport.CreateLeadRequest) (leaddomain.Lead, error)
}

// FormSubmission represents an inbound form submission via the webhook.
type FormSubmission struct {
	Fields       map[string]string
	SourceDomain string
	APIKeyID     uuid.UUID
}

// FormSubmissionResponse is returned to the caller on success.
type FormSubmissionResponse struct {
	LeadID       uuid.UUID         `json:"leadId"`
	IsIncomplete bool              `json:"isIncomplete"`
	IsDuplicate  bool              `json:"isDuplicate"`
	Extracted    map[string]string `json:"extractedFields"`
	Message      string            `json:"message"`
}

// recentLead is shared by every contact key of one submission. done is
// closed once the lead exists or its creation failed.
type recentLead struct {
	leadID uuid.UUID
	at     time.Time
	done   chan struct{}
}

func (r *recentLead) settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Service turns inbound submissions into leads.
type Service struct {
	store       Store
	leadCreator LeadCreator
	log         *logger.Logger
	now         func() time.Time

	mu     sync.Mutex
	recent map[string]*recentLead
}

// NewService creates a new webhook service.
func NewService(store Store, leadCreator LeadCreator, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		leadCreator: leadCreator,
		log:         log,
		now:         time.Now,
		recent:      make(map[string]*recentLead),
	}
}

// ProcessFormSubmission extracts lead fields from an arbitrary form and creates a lead.
// A second submission with the same email or phone within a minute returns the first lead,
// also while the first one is still being created.
func (s *Service) ProcessFormSubmission(ctx context.Context, sub FormSubmission, orgID uuid.UUID) (FormSubmissionResponse, error) {
	extracted := ExtractFields(sub.Fields)
	isIncomplete := extracted.IsIncomplete()

	dupID, entry, err := s.claimContact(ctx, orgID, extracted)
	if err != nil {
		return FormSubmissionResponse{}, err
	}
	if dupID != uuid.Nil {
		s.log.Info("webhook: duplicate lead detected, skipping creation", "leadId", dupID, "domain", sub.SourceDomain)
		return FormSubmissionResponse{
			LeadID:       dupID,
			IsIncomplete: isIncomplete,
			IsDuplicate:  true,
			Extracted:    buildExtractedMap(extracted),
			Message:      "Duplicate lead ignored",
		}, nil
	}

	source := "webhook"
	if sub.SourceDomain != "" {
		source += ":" + sub.SourceDomain
	}
	lead, err := s.leadCreator.Create(ctx, orgID, buildCreateLeadRequest(extracted, source))
	if err != nil {
		s.settle(entry, uuid.Nil)
		s.log.Error("webhook: failed to create lead from form submission", "error", err, "domain", sub.SourceDomain)
		return FormSubmissionResponse{}, err
	}
	s.settle(entry, lead.ID)

	return FormSubmissionResponse{
		LeadID:       lead.ID,
		IsIncomplete: isIncomplete,
		Extracted:    buildExtractedMap(extracted),
		Message:      buildWebhookMessage(isIncomplete),
	}, nil
}

// ProcessGoogleLeadWebhook validates and processes a Google Lead Form webhook payload.
// The google_key configured in Google Ads is a webhook API key.
func (s *Service) ProcessGoogleLeadWebhook(ctx context.Context, payload GoogleLeadPayload) (GoogleLeadResult, error) {
	if payload.GoogleKey == "" {
		return GoogleLeadResult{}, apperr.Unauthorized("missing google_key")
	}
	key, err := s.store.GetByHash(ctx, HashKey(payload.GoogleKey))
	if errors.Is(err, ErrAPIKeyNotFound) {
		return GoogleLeadResult{}, apperr.Unauthorized("invalid google_key")
	}
	if err != nil {
		return GoogleLeadResult{}, err
	}
	if strings.TrimSpace(payload.LeadID) == "" {
		return GoogleLeadResult{}, apperr.Validation("missing lead_id")
	}

	if payload.IsTest {
		return GoogleLeadResult{IsTest: true, Message: "Test lead received"}, nil
	}

	claimed, err := s.store.ClaimExternalLead(ctx, key.OrganizationID, googleLeadSource, payload.LeadID)
	if err != nil {
		return GoogleLeadResult{}, err
	}
	if !claimed {
		return GoogleLeadResult{IsDuplicate: true, Message: "Duplicate lead ignored"}, nil
	}

	extracted := ExtractFields(ExtractGoogleLeadFields(payload))
	lead, err := s.leadCreator.Create(ctx, key.OrganizationID, buildCreateLeadRequest(extracted, googleLeadSource))
	if err != nil {
		s.log.Error("webhook: failed to create lead from Google webhook", "error", err, "googleLeadId", payload.LeadID)
		return GoogleLeadResult{}, err
	}

	id := lead.ID.String()
	return GoogleLeadResult{LeadID: &id, Message: buildWebhookMessage(extracted.IsIncomplete())}, nil
}

func contactKeys(orgID uuid.UUID, extracted ExtractedFields) []string {
	var keys []string
	if extracted.Email != "" {
		keys = append(keys, orgID.String()+"|email|"+strings.ToLower(extracted.Email))
	}
	if extracted.Phone != "" {
		keys = append(keys, orgID.String()+"|phone|"+extracted.Phone)
	}
	return keys
}

// claimContact returns the lead of a recent submission with the same contact,
// waiting for it when it is still being created. Otherwise it reserves every
// contact key and returns the entry the caller must settle.
func (s *Service) claimContact(ctx context.Context, orgID uuid.UUID, extracted ExtractedFields) (uuid.UUID, *recentLead, error) {
	keys := contactKeys(orgID, extracted)
	if len(keys) == 0 {
		return uuid.Nil, nil, nil
	}
	for {
		s.mu.Lock()
		now := s.now()
		for k, r := range s.recent {
			if r.settled() && now.Sub(r.at) > duplicateWindow {
				delete(s.recent, k)
			}
		}
		var existing *recentLead
		for _, k := range keys {
			if r, ok := s.recent[k]; ok {
				existing = r
				break
			}
		}
		if existing == nil {
			entry := &recentLead{at: now, done: make(chan struct{})}
			for _, k := range keys {
				s.recent[k] = entry
			}
			s.mu.Unlock()
			return uuid.Nil, entry, nil
		}
		s.mu.Unlock()

		select {
		case <-existing.done:
		case <-ctx.Done():
			return uuid.Nil, nil, ctx.Err()
		}
		if existing.leadID != uuid.Nil {
			return existing.leadID, nil, nil
		}
		// The other submission failed and released its keys.
	}
}

// settle records the created lead, or releases the keys when leadID is nil.
func (s *Service) settle(entry *recentLead, leadID uuid.UUID) {
	if entry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if leadID == uuid.Nil {
		for k, r := range s.recent {
			if r == entry {
				delete(s.recent, k)
			}
		}
	} else {
		entry.leadID = leadID
		entry.at = s.now()
	}
	close(entry.done)
}

func buildCreateLeadRequest(extracted ExtractedFields, source string) leadtransport.CreateLeadRequest {
	req := leadtransport.CreateLeadRequest{
		FirstName:   extracted.FirstName,
		LastName:    extracted.LastName,
		Email:       extracted.Email,
		Phone:       extracted.Phone,
		JobTitle:    extracted.JobTitle,
		CompanyName: extracted.CompanyName,
		Industry:    extracted.Industry,
		CompanySize: extracted.CompanySize,
		BudgetRange: extracted.BudgetRange,
		Timeline:    extracted.Timeline,
		Source:      source,
		Campaign:    extracted.UTMCampaign,
		Notes:       extracted.Message,
	}
	if extracted.UTMSource != "" && source != googleLeadSource {
		req.Source = extracted.UTMSource
	}
	if req.FirstName == "" && req.LastName == "" && req.CompanyName == "" {
		req.FirstName = unknownName
	}
	return req
}

func buildExtractedMap(extracted ExtractedFields) map[string]string {
	result := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			result[k] = v
		}
	}
	set("firstName", extracted.FirstName)
	set("lastName", extracted.LastName)
	set("email", extracted.Email)
	set("phone", extracted.Phone)
	set("companyName", extracted.CompanyName)
	set("jobTitle", extracted.JobTitle)
	set("industry", extracted.Industry)
	set("companySize", extracted.CompanySize)
	set("budgetRange", extracted.BudgetRange)
	set("timeline", extracted.Timeline)
	return result
}

func buildWebhookMessage(isIncomplete bool) string {
	if isIncomplete {
		return "Lead created with incomplete data, manual review recommended"
	}
	return "Lead created successfully"
}
