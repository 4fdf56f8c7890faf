package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"study-planner/internal/shared/telemetry"
)

// OutcomeKey is set by handlers to the planner outcome code of the request.
const OutcomeKey = "outcomeCode"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		outcome := c.GetString(OutcomeKey)
		created, _ := c.Get("sessionCreated")

		telemetry.Info("request.complete", map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"route":           c.FullPath(),
			"status":          c.Writer.Status(),
			"outcome":         outcome,
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"session_id":      SessionIDFromContext(c),
			"session_created": created,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
