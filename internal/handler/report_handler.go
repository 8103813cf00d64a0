package handler

import (
	"net/http"
	"strings"

	"attendance_tracker/internal/export"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves attendance reports and their exports
type ReportHandler struct {
	service service.ReportService
	log     *logger.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(s service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{service: s, log: log}
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	storeID, ok := storeIDParam(c)
	if !ok {
		return
	}
	report, err := h.service.Generate(c.Request.Context(), adminID, storeID, periodParam(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to generate report")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) ExportReport(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	storeID, ok := storeIDParam(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatXLSX)))
	if err != nil {
		respondError(c, h.log, err, "Failed to export report")
		return
	}
	artifact, err := h.service.Export(c.Request.Context(), adminID, storeID, periodParam(c), format)
	if err != nil {
		respondError(c, h.log, err, "Failed to export report")
		return
	}
	sendArtifact(c, artifact)
}

// GetSummary answers JSON by default and a file for format=xlsx|pdf.
func (h *ReportHandler) GetSummary(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	storeID, ok := storeIDParam(c)
	if !ok {
		return
	}

	formatParam := strings.ToLower(c.DefaultQuery("format", "json"))
	if formatParam == "json" {
		summary, err := h.service.Summary(c.Request.Context(), adminID, storeID)
		if err != nil {
			respondError(c, h.log, err, "Failed to generate summary")
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}

	format, err := export.ParseFormat(formatParam)
	if err != nil {
		respondError(c, h.log, err, "Failed to export summary")
		return
	}
	artifact, err := h.service.ExportSummary(c.Request.Context(), adminID, storeID, format)
	if err != nil {
		respondError(c, h.log, err, "Failed to export summary")
		return
	}
	sendArtifact(c, artifact)
}

func storeIDParam(c *gin.Context) (string, bool) {
	storeID := c.Query("store_id")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id is required"})
		return "", false
	}
	return storeID, true
}

func periodParam(c *gin.Context) model.ReportPeriod {
	return model.ReportPeriod(strings.ToLower(c.DefaultQuery("period", string(model.PeriodWeekly))))
}

func sendArtifact(c *gin.Context, a *export.Artifact) {
	c.Header("Content-Disposition", "attachment; filename=\""+a.Filename+"\"")
	c.Data(http.StatusOK, a.ContentType, a.Data)
}

// RegisterReportRoutes registers report routes
func (h *ReportHandler) RegisterReportRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	reportRoutes := rg.Group("/admin/reports")
	reportRoutes.Use(authMW, adminMW)
	{
		reportRoutes.GET("", h.GetReport)
		reportRoutes.GET("/export", h.ExportReport)
		reportRoutes.GET("/summary", h.GetSummary)
	}
}
