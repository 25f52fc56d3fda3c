package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{ secret string }

func (c testJWTConfig) GetJWTAccessSecret() string { return c.secret }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthEngine(cfg testJWTConfig, seen *Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(cfg), func(c *gin.Context) {
		*seen = MustGetIdentity(c)
		c.Status(http.StatusOK)
	})
	return engine
}

func TestAuthRequiredSetsIdentityAndTenant(t *testing.T) {
	cfg := testJWTConfig{secret: "s3cret"}
	userID := uuid.New()
	tenantID := uuid.New()
	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub":       userID.String(),
		"type":      "access",
		"roles":     []string{"sales"},
		"tenant_id": tenantID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	var seen Identity
	engine := newAuthEngine(cfg, &seen)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.UserID() != userID {
		t.Fatalf("expected identity for %s", userID)
	}
	if seen.TenantID() == nil || *seen.TenantID() != tenantID {
		t.Fatalf("expected tenant %s, got %v", tenantID, seen.TenantID())
	}
	if !seen.HasRole("sales") {
		t.Fatal("expected sales role")
	}
}

func TestAuthRequiredRejectsRefreshTokens(t *testing.T) {
	cfg := testJWTConfig{secret: "s3cret"}
	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	var seen Identity
	engine := newAuthEngine(cfg, &seen)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredMissingToken(t *testing.T) {
	var seen Identity
	engine := newAuthEngine(testJWTConfig{secret: "x"}, &seen)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRateLimitByKeysIndependently(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewIPRateLimiter(0, 1, nil)
	engine := gin.New()
	engine.POST("/forms", limiter.RateLimitBy(func(c *gin.Context) string {
		return c.GetHeader("X-Webhook-API-Key")
	}), func(c *gin.Context) { c.Status(http.StatusCreated) })

	post := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/forms", nil)
		req.Header.Set("X-Webhook-API-Key", key)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := post("a"); got != http.StatusCreated {
		t.Fatalf("first request: %d", got)
	}
	if got := post("a"); got != http.StatusTooManyRequests {
		t.Fatalf("second request for the same key: %d", got)
	}
	if got := post("b"); got != http.StatusCreated {
		t.Fatalf("other key: %d", got)
	}
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	limiter := NewIPRateLimiter(0, 1, nil)
	start := time.Now()
	if !limiter.allow("10.0.0.1", start) {
		t.Fatal("expected the first request to pass")
	}
	if limiter.allow("10.0.0.1", start) {
		t.Fatal("expected the bucket to be empty")
	}

	later := start.Add(2 * limiterIdleTTL)
	if !limiter.allow("10.0.0.2", later) {
		t.Fatal("expected a fresh key to pass")
	}
	if _, ok := limiter.limiters["10.0.0.1"]; ok {
		t.Fatal("expected the idle bucket to be swept")
	}
}
