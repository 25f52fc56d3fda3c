package webhook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	leaddomain "pipeline_backend/internal/leads/domain"
	leadtransport "pipeline_backend/internal/leads/transport"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCreator struct {
	requests []leadtransport.CreateLeadRequest
	tenants  []uuid.UUID
}

func (r *recordingCreator) Create(_ context.Context, tenantID uuid.UUID, req leadtransport.CreateLeadRequest) (leaddomain.Lead, error) {
	r.requests = append(r.requests, req)
	r.tenants = append(r.tenants, tenantID)
	return leaddomain.Lead{ID: uuid.New(), OrganizationID: tenantID, FirstName: req.FirstName}, nil
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *recordingCreator) {
	t.Helper()
	store := NewMemoryStore()
	creator := &recordingCreator{}
	return NewService(store, creator, logger.New("development")), store, creator
}

func TestExtractFieldsMapsBusinessAnswers(t *testing.T) {
	got := ExtractFields(map[string]string{
		"Full Name":    "Grace Brewster Hopper",
		"work-email":   "grace@navy.example",
		"Company":      "Navy Labs",
		"Employees":    "51-200",
		"Budget":       "50K - 100K",
		"Timeframe":    "1-3 Months",
		"utm_campaign": "spring",
		"favourite":    "ignored",
	})

	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "Brewster Hopper", got.LastName)
	assert.Equal(t, "grace@navy.example", got.Email)
	assert.Equal(t, "Navy Labs", got.CompanyName)
	assert.Equal(t, leaddomain.CompanySize51to200, got.CompanySize)
	assert.Equal(t, leaddomain.Budget50kTo100k, got.BudgetRange)
	assert.Equal(t, leaddomain.Timeline1to3Months, got.Timeline)
	assert.Equal(t, "spring", got.UTMCampaign)
	assert.False(t, got.IsIncomplete())
}

func TestExtractFieldsDropsUnknownOptions(t *testing.T) {
	got := ExtractFields(map[string]string{"email": "not-an-email", "budget": "lots"})
	assert.Empty(t, got.Email)
	assert.Empty(t, got.BudgetRange)
	assert.True(t, got.IsIncomplete())
}

func TestIsDomainAllowed(t *testing.T) {
	cases := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://www.acme.example", []string{"www.acme.example"}, true},
		{"https://shop.acme.example", []string{"*.acme.example"}, true},
		{"https://acme.example", []string{"*.acme.example"}, true},
		{"https://evil.example", []string{"*.acme.example"}, false},
		{"https://anything.example", []string{"*"}, true},
		{"", []string{"*"}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isDomainAllowed(tc.origin, tc.allowed), tc.origin)
	}
}

func TestProcessFormSubmissionCreatesLead(t *testing.T) {
	svc, _, creator := newTestService(t)
	orgID := uuid.New()

	resp, err := svc.ProcessFormSubmission(context.Background(), FormSubmission{
		Fields: map[string]string{
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"email":      "ada@engines.example",
			"message":    "Please call me",
		},
		SourceDomain: "engines.example",
	}, orgID)
	require.NoError(t, err)

	require.Len(t, creator.requests, 1)
	req := creator.requests[0]
	assert.Equal(t, orgID, creator.tenants[0])
	assert.Equal(t, "webhook:engines.example", req.Source)
	assert.Equal(t, "Please call me", req.Notes)
	assert.False(t, resp.IsIncomplete)
	assert.Equal(t, "ada@engines.example", resp.Extracted["email"])
}

func TestProcessFormSubmissionSkipsRecentDuplicate(t *testing.T) {
	svc, _, creator := newTestService(t)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	orgID := uuid.New()
	sub := FormSubmission{Fields: map[string]string{"email": "bo@tiny.example"}}

	first, err := svc.ProcessFormSubmission(context.Background(), sub, orgID)
	require.NoError(t, err)
	assert.Equal(t, unknownName, creator.requests[0].FirstName)
	assert.True(t, first.IsIncomplete)

	second, err := svc.ProcessFormSubmission(context.Background(), sub, orgID)
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.LeadID, second.LeadID)
	assert.Len(t, creator.requests, 1)

	// Another tenant is never a duplicate.
	_, err = svc.ProcessFormSubmission(context.Background(), sub, uuid.New())
	require.NoError(t, err)
	assert.Len(t, creator.requests, 2)

	now = now.Add(2 * duplicateWindow)
	third, err := svc.ProcessFormSubmission(context.Background(), sub, orgID)
	require.NoError(t, err)
	assert.False(t, third.IsDuplicate)
	assert.Len(t, creator.requests, 3)
}

// gatedCreator holds every Create until release is closed.
type gatedCreator struct {
	entered chan struct{}
	release chan struct{}
	fail    bool

	mu    sync.Mutex
	calls int
}

func (g *gatedCreator) Create(_ context.Context, tenantID uuid.UUID, _ leadtransport.CreateLeadRequest) (leaddomain.Lead, error) {
	g.mu.Lock()
	g.calls++
	fail := g.fail
	g.fail = false
	g.mu.Unlock()

	g.entered <- struct{}{}
	<-g.release
	if fail {
		return leaddomain.Lead{}, errors.New("lead store unavailable")
	}
	return leaddomain.Lead{ID: uuid.New(), OrganizationID: tenantID}, nil
}

func TestConcurrentDuplicateWaitsForFirstLead(t *testing.T) {
	creator := &gatedCreator{entered: make(chan struct{}, 2), release: make(chan struct{})}
	svc := NewService(NewMemoryStore(), creator, logger.New("development"))
	orgID := uuid.New()
	sub := FormSubmission{Fields: map[string]string{"email": "race@tiny.example", "first_name": "Rae"}}

	results := make(chan FormSubmissionResponse, 2)
	submit := func() {
		resp, err := svc.ProcessFormSubmission(context.Background(), sub, orgID)
		assert.NoError(t, err)
		results <- resp
	}

	go submit()
	<-creator.entered
	go submit()
	close(creator.release)

	first, second := <-results, <-results
	assert.Equal(t, first.LeadID, second.LeadID)
	assert.NotEqual(t, first.IsDuplicate, second.IsDuplicate)
	creator.mu.Lock()
	defer creator.mu.Unlock()
	assert.Equal(t, 1, creator.calls)
}

func TestFailedSubmissionReleasesContact(t *testing.T) {
	creator := &gatedCreator{entered: make(chan struct{}, 2), release: make(chan struct{}), fail: true}
	close(creator.release)
	svc := NewService(NewMemoryStore(), creator, logger.New("development"))
	orgID := uuid.New()
	sub := FormSubmission{Fields: map[string]string{"phone": "+31612345678", "first_name": "Ivo"}}

	_, err := svc.ProcessFormSubmission(context.Background(), sub, orgID)
	require.Error(t, err)

	resp, err := svc.ProcessFormSubmission(context.Background(), sub, orgID)
	require.NoError(t, err)
	assert.False(t, resp.IsDuplicate)
	assert.NotEqual(t, uuid.Nil, resp.LeadID)
	assert.Equal(t, 2, creator.calls)
}

func TestProcessGoogleLeadWebhook(t *testing.T) {
	svc, store, creator := newTestService(t)
	orgID := uuid.New()
	plaintext, hash, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	_, err = store.Create(context.Background(), orgID, "google", hash, prefix, nil)
	require.NoError(t, err)

	payload := GoogleLeadPayload{
		GoogleKey:    plaintext,
		LeadID:       "g-123",
		CampaignName: "Q4 Fleet",
		UserColumnData: []GoogleColumnData{
			{ColumnID: "FULL_NAME", StringValue: "Linus Pauling"},
			{ColumnID: "WORK_EMAIL", StringValue: "linus@chem.example"},
			{ColumnID: "COMPANY_NAME", StringValue: "Chem Corp"},
			{ColumnName: "How many employees?", StringValue: "1000+"},
		},
	}

	res, err := svc.ProcessGoogleLeadWebhook(context.Background(), payload)
	require.NoError(t, err)
	require.NotNil(t, res.LeadID)
	require.Len(t, creator.requests, 1)
	req := creator.requests[0]
	assert.Equal(t, googleLeadSource, req.Source)
	assert.Equal(t, "Q4 Fleet", req.Campaign)
	assert.Equal(t, "Chem Corp", req.CompanyName)
	assert.Equal(t, leaddomain.CompanySize1000Plus, req.CompanySize)

	res, err = svc.ProcessGoogleLeadWebhook(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, res.IsDuplicate)
	assert.Len(t, creator.requests, 1)

	payload.LeadID = "g-test"
	payload.IsTest = true
	res, err = svc.ProcessGoogleLeadWebhook(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, res.IsTest)
	assert.Len(t, creator.requests, 1)
}

func TestProcessGoogleLeadWebhookRejectsUnknownKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ProcessGoogleLeadWebhook(context.Background(), GoogleLeadPayload{GoogleKey: "whk_nope", LeadID: "x"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestMemoryStoreRevoke(t *testing.T) {
	store := NewMemoryStore()
	orgID := uuid.New()
	_, hash, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	key, err := store.Create(context.Background(), orgID, "site", hash, prefix, []string{"acme.example"})
	require.NoError(t, err)

	assert.ErrorIs(t, store.Revoke(context.Background(), key.ID, uuid.New()), ErrAPIKeyNotFound)
	require.NoError(t, store.Revoke(context.Background(), key.ID, orgID))

	_, err = store.GetByHash(context.Background(), hash)
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)

	keys, err := store.ListByOrganization(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.False(t, keys[0].IsActive)
}
