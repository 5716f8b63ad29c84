package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/platform/config"
	"github.com/jsamuelsen/quotes-api/internal/platform/telemetry"
)

const wildcardOrigin = "*"

// CORS allows browser clients from the configured origins. Credentials are
// only allowed when the origins are listed explicitly.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", headerAuthorization, HeaderRequestID, HeaderCorrelationID,
		},
		ExposeHeaders: []string{HeaderRequestID, HeaderCorrelationID, telemetry.HeaderTraceID},
		MaxAge:        cfg.MaxAge,
	}

	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, wildcardOrigin) {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}

	return cors.New(c)
}
