package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	portssvc "github.com/enersync/utility_sync_app/internal/core/ports/services"
	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/enersync/utility_sync_app/internal/middleware"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// indicationsHandler handles HTTP requests for the indication operations.
type indicationsHandler struct {
	indicationService portssvc.IndicationSvcFacade
}

func newIndicationsHandler(is portssvc.IndicationSvcFacade) *indicationsHandler {
	return &indicationsHandler{
		indicationService: is,
	}
}

// registerIndicationRoutes registers the indication submission routes. Both
// routes share the per-IP rate limiter since each call hits the provider.
func registerIndicationRoutes(rg *gin.RouterGroup, cfg *config.Config, indicationService portssvc.IndicationSvcFacade) {
	h := newIndicationsHandler(indicationService)
	limitMiddleware := newRateLimiter(cfg)

	indications := rg.Group("/indications")
	{
		indications.POST("/push", limitMiddleware, h.pushIndications)
		indications.POST("/calculate", limitMiddleware, h.calculateIndications)
	}
}

// pushIndications godoc
// @Summary Submit meter readings
// @Description Submits readings for one meter to the billing provider.
// @Tags indications
// @Accept json
// @Produce json
// @Param request body dto.IndicationsRequest true "Submission request"
// @Success 200 {object} dto.PushResultResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Meter not found"
// @Failure 422 {object} ErrorResponse "Meter does not support submission"
// @Failure 502 {object} ErrorResponse "Provider rejected the operation"
// @Security BearerAuth
// @Router /indications/push [post]
func (h *indicationsHandler) pushIndications(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.IndicationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for pushIndications", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.indicationService.PushIndications(c.Request.Context(), req)
	if err != nil {
		respondIndicationError(c, err, "push")
		return
	}

	c.JSON(http.StatusOK, result)
}

// calculateIndications godoc
// @Summary Calculate charge for candidate readings
// @Description Runs a what-if charge calculation without committing a submission.
// @Tags indications
// @Accept json
// @Produce json
// @Param request body dto.IndicationsRequest true "Calculation request"
// @Success 200 {object} dto.CalculationResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Meter not found"
// @Failure 422 {object} ErrorResponse "Meter does not support calculation"
// @Failure 502 {object} ErrorResponse "Provider rejected the operation"
// @Security BearerAuth
// @Router /indications/calculate [post]
func (h *indicationsHandler) calculateIndications(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.IndicationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for calculateIndications", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.indicationService.CalculateIndications(c.Request.Context(), req)
	if err != nil {
		respondIndicationError(c, err, "calculate")
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondIndicationError maps service errors onto HTTP statuses.
func respondIndicationError(c *gin.Context, err error, operation string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrMeterNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrUnsupported):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrIndicationsCount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrProvider), errors.Is(err, apperrors.ErrAuthentication), errors.Is(err, apperrors.ErrFetch):
		logger.Error("Provider error during indication operation",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("Unexpected error during indication operation",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
