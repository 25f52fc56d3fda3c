package webhook

import (
	"fmt"

	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/platform/httpkit"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Each key may post 30 forms per minute from one client address.
const formsPerMinute = 30

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	store   Store
	limiter *httpkit.IPRateLimiter
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(store Store, leadCreator LeadCreator, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(store, leadCreator, log)
	return &Module{
		handler: NewHandler(service, store, val),
		store:   store,
		limiter: httpkit.NewIPRateLimiter(rate.Limit(formsPerMinute/60.0), formsPerMinute, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public form endpoint (API key auth, no JWT)
	forms := ctx.V1.Group("/webhook")
	forms.Use(APIKeyAuthMiddleware(m.store), m.limiter.RateLimitBy(formSubmitter))
	forms.POST("/forms", m.handler.HandleFormSubmission)

	// Google authenticates through the google_key in the payload
	ctx.V1.POST("/webhook/google-leads", m.handler.HandleGoogleLeadWebhook)

	// Key management is limited to administrators
	keys := ctx.Protected.Group("/webhook/keys", httpkit.RequireRole("admin"))
	keys.POST("", m.handler.HandleCreateAPIKey)
	keys.GET("", m.handler.HandleListAPIKeys)
	keys.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

func formSubmitter(c *gin.Context) string {
	keyID, _ := c.Get("webhookKeyID")
	return fmt.Sprintf("%v|%s", keyID, c.ClientIP())
}
