package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/ecomarket-gateway/internal/platform/telemetry"

// HeaderTraceID echoes the trace ID of the request back to the caller.
const HeaderTraceID = "X-Trace-ID"

type serverMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

func newServerMetrics() (*serverMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Gateway request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of gateway requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight gateway requests"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware returns the otelgin tracing handler followed by a handler that
// records server metrics and sets the X-Trace-ID response header.
func Middleware(serviceName string) []gin.HandlerFunc {
	metrics, err := newServerMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		func(c *gin.Context) {
			start := time.Now()
			ctx := c.Request.Context()

			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				traceID := sc.TraceID().String()
				c.Header(HeaderTraceID, traceID)

				ctx = logging.WithTraceID(ctx, traceID)
				c.Request = c.Request.WithContext(ctx)
			}

			if metrics == nil {
				c.Next()
				return
			}

			route := attribute.String("http.route", c.FullPath())
			method := attribute.String("http.method", c.Request.Method)

			metrics.activeRequests.Add(ctx, 1, metric.WithAttributes(method, route))
			defer metrics.activeRequests.Add(ctx, -1, metric.WithAttributes(method, route))

			c.Next()

			attrs := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
			metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			metrics.requestTotal.Add(ctx, 1, attrs)
		},
	}
}
