package handler

import (
	"net/http"
	"strconv"

	"attendance_tracker/internal/live"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

const statusEvent = "status"

// AttendanceHandler serves check-in status and history
type AttendanceHandler struct {
	service service.AttendanceService
	views   *live.Views
	log     *logger.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler
func NewAttendanceHandler(s service.AttendanceService, views *live.Views, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: s, views: views, log: log}
}

func (h *AttendanceHandler) GetMyStatus(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	status, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// StreamMyStatus pushes the caller's status every time it changes until the
// client leaves or the subscription fails. Logout ends it as well.
func (h *AttendanceHandler) StreamMyStatus(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	ctx, release := h.views.Track(c.Request.Context(), userID)
	defer release()
	stream := h.service.WatchStatus(ctx, userID)
	defer stream.Close()

	startEventStream(c)
	pumpEvents(ctx, c, stream.C, func(model.AttendanceStatus) string { return statusEvent })
	if err := stream.Err(); err != nil {
		h.log.Error(h.log.WithUserID(ctx, userID), "status subscription failed", err)
		c.SSEvent("error", gin.H{"error": "live updates stopped, please reconnect"})
		c.Writer.Flush()
	}
}

func (h *AttendanceHandler) GetMyCheckIns(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve check-ins")
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *AttendanceHandler) GetEmployeeCheckIns(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	history, err := h.service.EmployeeHistory(c.Request.Context(), adminID, c.Param("id"), limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve check-ins")
		return
	}
	c.JSON(http.StatusOK, history)
}

func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	return limit, true
}

// RegisterAttendanceRoutes registers status and history routes
func (h *AttendanceHandler) RegisterAttendanceRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, employeeMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	meRoutes := rg.Group("/me")
	meRoutes.Use(authMW, employeeMW)
	{
		meRoutes.GET("/status", h.GetMyStatus)
		meRoutes.GET("/status/stream", h.StreamMyStatus)
		meRoutes.GET("/check-ins", h.GetMyCheckIns)
	}

	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW, adminMW)
	{
		adminRoutes.GET("/employees/:id/check-ins", h.GetEmployeeCheckIns)
	}
}
