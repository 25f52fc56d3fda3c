package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/events"
	"pipeline_backend/internal/leads/repository"
	"pipeline_backend/internal/leads/service"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newTestRouter(tenantID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test")
	svc := service.New(repository.NewMemory(), events.NewInMemoryBus(log), cache.Noop{}, log)
	h := New(svc, validator.New())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		if tenantID != uuid.Nil {
			c.Set(httpkit.ContextTenantIDKey, tenantID)
		}
		c.Next()
	})
	r.GET("/leads", h.List)
	r.POST("/leads", h.Create)
	r.GET("/leads/:id", h.Get)
	r.POST("/leads/:id/status", h.TransitionStatus)
	r.PUT("/leads/:id/score", h.SetScore)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createLead(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec := do(r, http.MethodPost, "/leads", map[string]string{"firstName": "Ada", "companyName": "Engines"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return created.ID
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRouter(uuid.New())
	id := createLead(t, r)

	rec := do(r, http.MethodGet, "/leads/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateRejectsInvalidEmail(t *testing.T) {
	r := newTestRouter(uuid.New())
	rec := do(r, http.MethodPost, "/leads", map[string]string{"firstName": "A", "email": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIllegalTransitionMapsToConflict(t *testing.T) {
	r := newTestRouter(uuid.New())
	id := createLead(t, r)

	rec := do(r, http.MethodPost, "/leads/"+id+"/status", map[string]string{"status": "converted"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var body httpkit.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != "invalid_transition" {
		t.Fatalf("expected invalid_transition code, got %q", body.Code)
	}
}

func TestSetScoreOutOfRange(t *testing.T) {
	r := newTestRouter(uuid.New())
	id := createLead(t, r)

	rec := do(r, http.MethodPut, "/leads/"+id+"/score", map[string]int{"score": 150})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetUnknownLead(t *testing.T) {
	r := newTestRouter(uuid.New())
	rec := do(r, http.MethodGet, "/leads/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListWithoutTenantIsEmpty(t *testing.T) {
	r := newTestRouter(uuid.Nil)
	rec := do(r, http.MethodGet, "/leads", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page struct {
		Data  []json.RawMessage `json:"data"`
		Total int               `json:"total"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Total != 0 || page.Data == nil {
		t.Fatalf("expected empty page, got %s", rec.Body.String())
	}
}
