package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
)

const (
	// HeaderCorrelationID spans a whole business transaction across
	// services, unlike the per-hop request id.
	HeaderCorrelationID     = "X-Correlation-ID"
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID propagates X-Correlation-ID, starting a new one when the
// caller sent none.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderCorrelationID,
		contextKey: ContextKeyCorrelationID,
		contextEnricher: func(ctx context.Context, id string) context.Context {
			return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
		},
	})
}

// GetCorrelationID returns the correlation id, or "" before CorrelationID ran.
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}
