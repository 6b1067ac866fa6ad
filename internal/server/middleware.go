package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/scribeq/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a request id to the context and response, reusing
// the client's id when one is supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogging logs one line per request with latency and status.
func RequestLogging(log *logger.Logger) gin.HandlerFunc {
	l := log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString("request_id"),
		)
		if c.Writer.Status() >= 500 {
			l.Error("request", fields)
		} else {
			l.Info("request", fields)
		}
	}
}

// Recovery converts panics into 500 responses with a logged stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	l := log.WithComponent("http")
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		l.Error("panic recovered", logger.Fields(
			"error", err, "path", c.Request.URL.Path, "request_id", c.GetString("request_id")))
		c.AbortWithStatusJSON(500, gin.H{"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred.",
		}})
	})
}
