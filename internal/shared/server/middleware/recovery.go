package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/shared/server/respond"
	"contractbot-backend/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a failure envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				c.Set(ErrorKindKey, "Internal")
				respond.Error(c, http.StatusInternalServerError, "Internal", "Unexpected server error")
			}
		}()
		c.Next()
	}
}
