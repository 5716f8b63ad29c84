package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxInboundIDLength bounds ids accepted from callers.
const maxInboundIDLength = 128

type idMiddlewareConfig struct {
	headerName      string
	contextKey      string
	contextEnricher func(ctx context.Context, id string) context.Context
}

// createIDMiddleware backs RequestID and CorrelationID. A caller supplied
// id is kept only when it is short and made of token characters, since it
// ends up in response headers and every log line of the request.
func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.headerName)
		if !isAcceptableID(id) {
			id = uuid.NewString()
		}

		c.Set(cfg.contextKey, id)
		c.Header(cfg.headerName, id)

		if cfg.contextEnricher != nil {
			c.Request = c.Request.WithContext(cfg.contextEnricher(c.Request.Context(), id))
		}

		c.Next()
	}
}

func isAcceptableID(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}

	return true
}

func getIDFromContext(c *gin.Context, key string) string {
	if id, ok := c.Get(key); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}

	return ""
}
