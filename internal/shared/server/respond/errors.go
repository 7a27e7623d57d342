package respond

import (
	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/shared/telemetry"
)

// ErrorKindHeader carries the machine-readable error kind next to the envelope.
const ErrorKindHeader = "X-Error-Kind"

// FailureEnvelope is the response body for every failed request.
type FailureEnvelope struct {
	Success  bool   `json:"success"`
	Analysis any    `json:"analysis"`
	Error    string `json:"error"`
}

// Error logs the failure and aborts with a failure envelope.
func Error(c *gin.Context, status int, kind, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"kind":       kind,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	if kind != "" {
		c.Header(ErrorKindHeader, kind)
	}
	c.AbortWithStatusJSON(status, FailureEnvelope{
		Success:  false,
		Analysis: nil,
		Error:    message,
	})
}
