package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPublicFormsCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	strictCalled := false
	engine := gin.New()
	engine.Use(publicFormsCORS(func(c *gin.Context) {
		strictCalled = true
		c.AbortWithStatus(http.StatusForbidden)
	}))
	engine.POST(publicFormsPath, func(c *gin.Context) { c.Status(http.StatusCreated) })
	engine.GET("/api/v1/leads", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, publicFormsPath, nil)
	req.Header.Set("Origin", "https://shop.example")
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: got %d %v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, publicFormsPath, nil))
	if rec.Code != http.StatusCreated || strictCalled {
		t.Fatalf("form post: got %d, strict policy called %v", rec.Code, strictCalled)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil))
	if rec.Code != http.StatusForbidden || !strictCalled {
		t.Fatalf("other routes must use the configured policy, got %d", rec.Code)
	}
}
