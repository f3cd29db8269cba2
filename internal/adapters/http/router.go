package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/telemetry"
)

// RouterConfig contains what SetupRouter needs.
type RouterConfig struct {
	// Logger seeds every request context.
	Logger *slog.Logger

	// ServiceName names the otelgin server spans.
	ServiceName string

	HealthHandler  *handlers.HealthHandler
	CatalogHandler *handlers.CatalogHandler

	// Timeout bounds each /api/v1 request, retries and backoff included.
	// Zero disables it.
	Timeout time.Duration
}

// SetupRouter installs middleware and routes on engine. Global middleware
// runs in this order:
//  1. Recovery
//  2. Logger (base logger into the context)
//  3. Request ID and correlation ID
//  4. OpenTelemetry tracing and server metrics
//  5. Request logging (skips /-/)
//
// /-/ serves health, build and metrics. /api/v1 adds the request timeout and
// forwards the caller's bearer credentials to EcoMarket.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.Logger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging())

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Timeout(cfg.Timeout), middleware.ForwardAuthorization())

	if cfg.CatalogHandler != nil {
		cfg.CatalogHandler.RegisterCatalogRoutes(apiV1)
	}
}
