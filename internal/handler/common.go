package handler

import (
	"errors"
	"net/http"

	"attendance_tracker/internal/export"
	"attendance_tracker/internal/geo"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/middleware"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// Helper to get authenticated user ID from context
func getAuthUserID(c *gin.Context) (string, error) {
	userIDVal, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return "", errors.New("invalid user ID type in context")
	}
	return userID, nil
}

// mustAuthUserID writes 401 and returns false when the request is anonymous.
func mustAuthUserID(c *gin.Context) (string, bool) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return "", false
	}
	return userID, true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrEmployeeNotFound),
		errors.Is(err, service.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrDuplicateQRPayload),
		errors.Is(err, service.ErrStoreHasEmployees):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoStoreCredits),
		errors.Is(err, service.ErrNoReportData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidReferenceCode),
		errors.Is(err, service.ErrInvalidStore),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, geo.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrReferenceCodeExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError maps err to a status. Server-side failures are logged and
// answered with fallback only.
func respondError(c *gin.Context, log *logger.Logger, err error, fallback string) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(c.Request.Context(), fallback, err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": fallback + ", please try again"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}
