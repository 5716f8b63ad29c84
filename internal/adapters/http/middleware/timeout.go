package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
)

// SimpleTimeout puts a deadline on the request context. Handlers and the
// store observe it through ctx; nothing is aborted from outside. Requests
// that outlive the deadline are logged once they return.
func SimpleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logging.FromContext(ctx).WarnContext(ctx, "request exceeded its deadline",
				slog.Duration("timeout", timeout),
				slog.Int("status", c.Writer.Status()),
			)
		}
	}
}
