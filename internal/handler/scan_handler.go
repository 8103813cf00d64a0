package handler

import (
	"net/http"

	"attendance_tracker/internal/geo"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// ScanHandler exposes an employee's scanning screen session
type ScanHandler struct {
	service service.ScanService
	log     *logger.Logger
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(s service.ScanService, log *logger.Logger) *ScanHandler {
	return &ScanHandler{service: s, log: log}
}

func (h *ScanHandler) EnterSession(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	session, err := h.service.Enter(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to start scan session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *ScanHandler) GetSession(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	session, err := h.service.Session(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load scan session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// Scan feeds one camera trigger into the session. Triggers arriving while a
// scan is processed or its dialog is open are ignored.
func (h *ScanHandler) Scan(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	var req model.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var fix *geo.Point
	if req.Latitude != nil && req.Longitude != nil {
		fix = &geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	session, accepted, err := h.service.Trigger(c.Request.Context(), userID, service.ScanTrigger{
		Payload: req.Payload,
		Locator: geo.ReportedLocator{Point: fix},
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to process scan")
		return
	}
	if !accepted {
		c.JSON(http.StatusAccepted, gin.H{"ignored": true, "session": session})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *ScanHandler) Dismiss(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	session, err := h.service.Dismiss(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to dismiss scan result")
		return
	}
	c.JSON(http.StatusOK, session)
}

// RegisterScanRoutes registers scan routes
func (h *ScanHandler) RegisterScanRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, employeeMW gin.HandlerFunc) {
	scanRoutes := rg.Group("/scan")
	scanRoutes.Use(authMW, employeeMW)
	{
		scanRoutes.POST("", h.Scan)
		scanRoutes.POST("/session", h.EnterSession)
		scanRoutes.GET("/session", h.GetSession)
		scanRoutes.POST("/dismiss", h.Dismiss)
	}
}
