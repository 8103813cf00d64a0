package handler

import (
	"net/http"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the admin's live store tabs and roster
type DashboardHandler struct {
	registry *service.DashboardRegistry
	stores   service.StoreService
	roster   service.RosterService
	log      *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(registry *service.DashboardRegistry, stores service.StoreService, roster service.RosterService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{registry: registry, stores: stores, roster: roster, log: log}
}

// StreamDashboard opens a dashboard view. The first event carries the view id
// used to switch stores.
func (h *DashboardHandler) StreamDashboard(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	d := h.registry.Open(c.Request.Context(), adminID, c.Query("store_id"))
	defer d.Close()

	startEventStream(c)
	pumpEvents(c.Request.Context(), c, d.Events(), func(ev model.DashboardEvent) string { return string(ev.Kind) })
}

func (h *DashboardHandler) SelectStore(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	var req struct {
		StoreID string `json:"store_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.registry.Select(c.Request.Context(), adminID, c.Param("view"), req.StoreID); err != nil {
		respondError(c, h.log, err, "Failed to switch store")
		return
	}
	c.JSON(http.StatusOK, gin.H{"view_id": c.Param("view"), "selected_store_id": req.StoreID})
}

// GetRoster returns a one-off roster of an owned store.
func (h *DashboardHandler) GetRoster(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	storeID := c.Query("store_id")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id is required"})
		return
	}
	if _, err := h.stores.Get(c.Request.Context(), adminID, storeID); err != nil {
		respondError(c, h.log, err, "Failed to load roster")
		return
	}
	roster, err := h.roster.Snapshot(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load roster")
		return
	}
	if roster == nil {
		roster = []model.RosterEntry{}
	}
	c.JSON(http.StatusOK, roster)
}

// RegisterDashboardRoutes registers dashboard routes
func (h *DashboardHandler) RegisterDashboardRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW, adminMW)
	{
		adminRoutes.GET("/dashboard/stream", h.StreamDashboard)
		adminRoutes.PUT("/dashboard/:view/store", h.SelectStore)
		adminRoutes.GET("/roster", h.GetRoster)
	}
}
