package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func startEventStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
}

// pumpEvents writes every value of ch as a server-sent event until ch is
// closed or ctx is done.
func pumpEvents[T any](ctx context.Context, c *gin.Context, ch <-chan T, name func(T) string) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(name(v), v)
			c.Writer.Flush()
		}
	}
}
