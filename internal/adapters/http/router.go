package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-api/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-api/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotes-api/internal/platform/config"
	"github.com/jsamuelsen/quotes-api/internal/platform/telemetry"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

// RouterConfig contains everything SetupRouter mounts.
type RouterConfig struct {
	// ServiceName names the tracer and the server spans.
	ServiceName string

	CORS config.CORSConfig

	// Timeout is the deadline put on every quote request. Zero disables it.
	Timeout time.Duration

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Verifier authenticates bearer tokens on the protected quote routes.
	Verifier ports.IdentityVerifier
}

// SetupRouter installs the middleware chain and every route on engine.
// Middleware runs in this order:
//  1. Recovery
//  2. Request ID and correlation ID
//  3. OpenTelemetry tracing and Prometheus metrics
//  4. CORS, so preflights are answered before auth
//  5. Logging (skips /-/)
//
// Operational endpoints live under /-/ without a deadline. Quote routes
// are mounted at the root behind the request timeout; the protected ones
// add RequireBearer.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(
		middleware.CORS(cfg.CORS),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine)
	}

	if cfg.QuoteHandler != nil {
		api := engine.Group("")
		api.Use(middleware.SimpleTimeout(cfg.Timeout))
		cfg.QuoteHandler.RegisterRoutes(api, cfg.Verifier)
	}

	engine.NoRoute(notFound)
}

func notFound(c *gin.Context) {
	dto.AbortWithErrorCode(c, dto.ErrorCodeNotFound, "route not found")
}
