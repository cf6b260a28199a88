package handlers

import (
	"net/http"

	portssvc "github.com/enersync/utility_sync_app/internal/core/ports/services"
	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/enersync/utility_sync_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// syncHandler handles on-demand reconciliation requests.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

func registerSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvcFacade) {
	h := &syncHandler{syncService: syncService}
	rg.POST("/sync", h.runSync)
}

// runSync godoc
// @Summary Reconcile all managed accounts now
// @Description Runs one reconciliation cycle per managed account and reports the outcome.
// @Tags sync
// @Produce json
// @Success 200 {array} dto.CycleSummary
// @Security BearerAuth
// @Router /sync [post]
func (h *syncHandler) runSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received on-demand sync request")

	summaries := h.syncService.RunAll(c.Request.Context())
	c.JSON(http.StatusOK, summaries)
}

// entityHandler lists the published entity snapshots.
type entityHandler struct {
	entityService portssvc.EntitySvcFacade
}

func registerEntityRoutes(rg *gin.RouterGroup, entityService portssvc.EntitySvcFacade) {
	h := &entityHandler{entityService: entityService}
	rg.GET("/entities", h.listEntities)
}

// listEntities godoc
// @Summary List published entities
// @Description Returns the current snapshot of every published entity.
// @Tags entities
// @Produce json
// @Success 200 {array} dto.EntityResponse
// @Security BearerAuth
// @Router /entities [get]
func (h *entityHandler) listEntities(c *gin.Context) {
	snapshots := h.entityService.Entities(c.Request.Context())
	c.JSON(http.StatusOK, dto.ToEntityResponses(snapshots))
}
