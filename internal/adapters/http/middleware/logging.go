package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
)

const operationalPrefix = "/-/"

// Logging logs each request's start and outcome through the request logger.
// Operational endpoints under /-/ are not logged.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, operationalPrefix) {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path

		ctx := c.Request.Context()
		logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "request started",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		// Re-read the logger: auth may have added user_id.
		ctx = c.Request.Context()
		logging.FromContext(ctx).Log(ctx, level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}
