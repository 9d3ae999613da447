package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware writes one structured access-log line per request.
// It replaces Gin's default logger so the output is machine-parsable
// alongside the rest of the application's slog output. No request
// bodies or credentials are ever logged here.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latencyMs", float64(time.Since(start)) / float64(time.Millisecond),
			"size", c.Writer.Size(),
			"requestId", c.GetString("requestId"),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			slog.Error("request", attrs...)
			return
		}
		slog.Info("request", attrs...)
	}
}
