package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/bluesky/api/internal/logger"
)

const panicMessage = "An unexpected error occurred"

// Recovery turns a panic into the standard 500 error envelope. The panic is
// attached to the gin context so the request log line carries it too.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			err := fmt.Errorf("panic: %v", rec)
			_ = c.Error(err)

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log.WithRequestID(GetRequestID(c))
			}
			requestLogger.Error("Panic recovered", err, map[string]interface{}{
				"method": c.Request.Method,
				"route":  c.FullPath(),
				"stack":  string(debug.Stack()),
			})

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": panicMessage,
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    panicMessage,
					"request_id": GetRequestID(c),
				},
			})
		}()

		c.Next()
	}
}
