package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"healthmate-backend/internal/shared/server/respond"
	"healthmate-backend/internal/shared/telemetry"
)

// Recovery converts handler panics into a JSON 500 so a bad document or
// chat turn never takes the process down. http.ErrAbortHandler is re-raised
// untouched: streaming handlers throw it to tear down the connection after
// the status line has gone out, and net/http treats it as a deliberate
// abort rather than a crash.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			c.Abort()
		}()
		c.Next()
	}
}
