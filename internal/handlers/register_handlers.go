package handlers

import (
	"net/http"

	portssvc "github.com/enersync/utility_sync_app/internal/core/ports/services"
	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/enersync/utility_sync_app/internal/middleware"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerRequestValidations()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	// Setup API v1 routes with token auth, passing service interfaces
	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply the token middleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.APITokenAuthMiddleware(cfg.APIToken))

	registerIndicationRoutes(v1, cfg, services.Indications)
	registerSyncRoutes(v1, services.Sync)
	registerEntityRoutes(v1, services.Entities)
}

// newRateLimiter builds the per-IP limiter for the indication routes.
func newRateLimiter(cfg *config.Config) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		// Fall back to a conservative default rather than running unlimited.
		rate, _ = limiter.NewRateFromFormatted("30-M")
	}
	store := memory.NewStore()
	return middleware.RateLimit(limiter.New(store, rate))
}

// registerRequestValidations installs struct-level validations on the shared
// binding validator.
func registerRequestValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterStructValidation(validateIndicationsRequest, dto.IndicationsRequest{})
}

// validateIndicationsRequest enforces that exactly one of entity_id and
// meter_code addresses the meter.
func validateIndicationsRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(dto.IndicationsRequest)

	hasEntityID := req.EntityID != nil && *req.EntityID != ""
	hasMeterCode := req.MeterCode != nil && *req.MeterCode != ""

	if hasEntityID == hasMeterCode {
		sl.ReportError(req.EntityID, "entity_id", "EntityID", "exactlyoneidentifier", "")
	}
}

// getHome godoc
// @Summary Show the status of server.
// @Description get the status of server.
// @Tags root
// @Accept */*
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func getHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Utility Sync Backend API v1"})
}
