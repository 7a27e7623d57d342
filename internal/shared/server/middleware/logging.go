package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log.
const (
	AnalysisSourceKey = "analysisSource"
	ErrorKindKey      = "errorKind"
	TruncatedKey      = "contractTruncated"
)

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

		source, _ := c.Get(AnalysisSourceKey)
		errorKind, _ := c.Get(ErrorKindKey)
		truncated, _ := c.Get(TruncatedKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"status":          c.Writer.Status(),
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"analysis_source": source,
			"error_kind":      errorKind,
			"truncated":       truncated,
			"bytes_in":        c.Request.ContentLength,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
