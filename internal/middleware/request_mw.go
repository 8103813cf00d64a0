package middleware

import (
	"net/http"
	"time"

	"attendance_tracker/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags the request context with a request id and logs one line
// per request once it completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := log.WithRequestID(c.Request.Context(), requestID)
		ctx = log.WithField(ctx, "method", c.Request.Method)
		ctx = log.WithField(ctx, "path", c.FullPath())
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		if userID := c.GetString(AuthUserKey); userID != "" {
			ctx = log.WithUserID(ctx, userID)
		}
		ctx = log.WithField(ctx, "status", c.Writer.Status())
		ctx = log.WithField(ctx, "duration_ms", time.Since(start).Milliseconds())
		if c.Writer.Status() >= http.StatusInternalServerError {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			log.Error(ctx, "request.complete", err)
			return
		}
		log.Info(ctx, "request.complete")
	}
}

// CORS allows any origin. Tighten AllowOrigin before exposing the API publicly.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
