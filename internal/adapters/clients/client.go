package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/config"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"

	httpStatusCategoryDivisor = 100

	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 << 20

	// HeaderClientVersion tells the upstream which client build is calling.
	HeaderClientVersion = "X-Client-Version"
)

// Config configures a Client.
type Config struct {
	// BaseURL is prefixed to every request path (e.g. "http://localhost:3000/api").
	BaseURL string

	// ServiceName identifies the upstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	Circuit   config.CircuitBreakerConfig
	RateLimit config.RateLimitConfig
	Transport config.TransportConfig

	// SlowThreshold logs calls that take longer as warnings. Zero disables it.
	SlowThreshold time.Duration

	// ClientVersion is sent in the X-Client-Version header when set.
	ClientVersion string

	// AuthFunc injects credentials. It runs on every attempt so a refreshed
	// token is picked up between retries.
	AuthFunc func(ctx context.Context, req *http.Request)

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64

	// Logger is optional. The context logger is preferred when present.
	Logger *slog.Logger

	// HTTPClient replaces the pooled client built from Transport. Used in tests.
	HTTPClient *http.Client
}

// Request is one upstream call. The body is held in memory so the same
// Request can be sent again on retry.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully read upstream answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// MediaType returns the Content-Type without parameters, lowercased.
func (r *Response) MediaType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}

	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}

	return mt
}

// Client performs single HTTP attempts against one upstream. It does not
// retry; callers wrap it in the retry engine. Each attempt is:
//   - gated by the circuit breaker and the rate limiter
//   - traced and measured with OpenTelemetry
//   - stamped with request, correlation and trace headers
//   - logged, with credentials scrubbed
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         *Config
	logger      *slog.Logger
	cb          *CircuitBreaker
	limiter     *rate.Limiter

	tracer trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	cb := NewCircuitBreaker(cfg.Circuit)
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	var limiter *rate.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), max(cfg.RateLimit.Burst, 1))
	}

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of upstream HTTP attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of upstream HTTP attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Transport.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
			},
		}
	}

	return &Client{
		http:            httpClient,
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		cfg:             cfg,
		logger:          logger,
		cb:              cb,
		limiter:         limiter,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// Do performs one attempt.
//
// Any HTTP answer, whatever its status, is returned as a Response with a nil
// error. A nil Response means no answer was obtained; the error is then
// ErrCircuitOpen, a rate limiter or context error, or the raw transport error.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	logger := c.requestLogger(ctx).With(
		slog.String("method", r.Method),
		slog.String("path", r.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, r.Method, 0, 0, "circuit_open")
		logger.Warn("request blocked by circuit breaker")
		return nil, ErrCircuitOpen
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.cb.Record(OutcomeIgnored)
			c.recordMetrics(ctx, r.Method, 0, 0, "rate_limited")
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		c.cb.Record(OutcomeIgnored)
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", r.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	logger.Log(ctx, logging.LevelTrace, "upstream request",
		slog.Any("headers", logging.RedactHeaders(req.Header)),
		slog.Int("body_bytes", len(r.Body)),
	)

	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		duration := time.Since(start)
		c.cb.Record(transportOutcome(ctx))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, r.Method, 0, duration, "error")
		logger.Warn("upstream request failed",
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return nil, err
	}
	defer closeBody(resp, logger)

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	duration := time.Since(start)
	if err != nil {
		c.cb.Record(transportOutcome(ctx))
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, r.Method, resp.StatusCode, duration, "error")
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.Record(OutcomeFailure)
	} else {
		c.cb.Record(OutcomeSuccess)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.recordMetrics(ctx, r.Method, resp.StatusCode, duration,
		fmt.Sprintf("%dxx", resp.StatusCode/httpStatusCategoryDivisor))
	c.logCompleted(ctx, logger, resp.StatusCode, duration, len(body))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// CircuitCounts returns a snapshot of the circuit breaker counters.
func (c *Client) CircuitCounts() Counts {
	return c.cb.Counts()
}

// BaseURL returns the upstream base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ServiceName returns the upstream name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

func (c *Client) newHTTPRequest(ctx context.Context, r *Request) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.buildURL(r.Path, r.Query), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("Accept", "application/json")
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	c.injectHeaders(ctx, req)

	return req, nil
}

// injectHeaders adds request ID, correlation ID, client version, and auth.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	if c.cfg.ClientVersion != "" {
		req.Header.Set(HeaderClientVersion, c.cfg.ClientVersion)
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(ctx, req)
	}
}

// buildURL joins the base URL, the path and the encoded query.
func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

func (c *Client) requestLogger(ctx context.Context) *slog.Logger {
	if l, ok := logging.FromContextOK(ctx); ok {
		return l.With(slog.String("downstream", c.serviceName))
	}

	return c.logger
}

func (c *Client) logCompleted(ctx context.Context, logger *slog.Logger, status int, duration time.Duration, size int) {
	attrs := []any{
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.Int("size", size),
	}

	switch {
	case c.cfg.SlowThreshold > 0 && duration > c.cfg.SlowThreshold:
		logger.WarnContext(ctx, "slow upstream request", append(attrs, slog.Duration("threshold", c.cfg.SlowThreshold))...)
	case status >= http.StatusInternalServerError:
		logger.WarnContext(ctx, "upstream request completed", attrs...)
	default:
		logger.DebugContext(ctx, "upstream request completed", attrs...)
	}
}

func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// transportOutcome does not hold a caller's cancellation against the upstream.
func transportOutcome(ctx context.Context) Outcome {
	if errors.Is(ctx.Err(), context.Canceled) {
		return OutcomeIgnored
	}

	return OutcomeFailure
}

func closeBody(resp *http.Response, logger *slog.Logger) {
	if err := resp.Body.Close(); err != nil {
		logger.Debug("failed to close response body", slog.Any("error", err))
	}
}
