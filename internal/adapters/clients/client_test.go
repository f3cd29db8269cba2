package clients

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/config"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

func defaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "ecomarket",
		Timeout:     5 * time.Second,
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
		Transport: config.TransportConfig{MaxIdleConns: 10, MaxIdleConnsPerHost: 2, IdleConnTimeout: time.Minute},
	}
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()

	c, err := New(cfg)
	require.NoError(t, err)

	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := defaultConfig("http://localhost")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")

	_, err = New(defaultConfig(""))
	require.ErrorContains(t, err, "invalid base url")
}

func TestNew_AppliesDefaults(t *testing.T) {
	c := newTestClient(t, defaultConfig("https://api.example.com/"))

	assert.Equal(t, "https://api.example.com", c.baseURL)
	assert.Equal(t, int64(defaultMaxBodyBytes), c.cfg.MaxBodyBytes)
	assert.Nil(t, c.limiter)
	assert.Equal(t, "ecomarket", c.ServiceName())
}

func TestClient_Do_ReturnsAnyStatusAsResponse(t *testing.T) {
	for _, status := range []int{200, 201, 204, 400, 401, 404, 409, 500, 503} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			if status != http.StatusNoContent {
				_, _ = w.Write([]byte(`{"ok":true}`))
			}
		}))

		c := newTestClient(t, defaultConfig(server.URL))
		resp, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/productos"})

		require.NoError(t, err, "status %d", status)
		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, "application/json", resp.MediaType())
		server.Close()
	}
}

func TestClient_Do_SendsRequest(t *testing.T) {
	var got struct {
		method, path, query, contentType, accept, version string
		body                                              []byte
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.contentType = r.Header.Get("Content-Type")
		got.accept = r.Header.Get("Accept")
		got.version = r.Header.Get(HeaderClientVersion)
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL + "/api")
	cfg.ClientVersion = "1.2.0"
	c := newTestClient(t, cfg)

	_, err := c.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "productos",
		Query:  url.Values{"categoria": {"miel"}},
		Body:   []byte(`{"nombre":"Miel"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/productos", got.path)
	assert.Equal(t, "categoria=miel", got.query)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "application/json", got.accept)
	assert.Equal(t, "1.2.0", got.version)
	assert.JSONEq(t, `{"nombre":"Miel"}`, string(got.body))
}

func TestClient_Do_RequestCanBeResent(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, defaultConfig(server.URL))
	req := &Request{Method: http.MethodPut, Path: "/productos/1", Body: []byte(`{"precio":10}`)}

	for range 2 {
		_, err := c.Do(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{`{"precio":10}`, `{"precio":10}`}, bodies)
}

func TestClient_HeaderPropagation(t *testing.T) {
	var requestID, correlationID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(middleware.HeaderRequestID)
		correlationID = r.Header.Get(middleware.HeaderCorrelationID)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, defaultConfig(server.URL))

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	_, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/productores"})
	require.NoError(t, err)

	assert.Equal(t, "req-123", requestID)
	assert.Equal(t, "corr-456", correlationID)
}

func TestClient_AuthFuncRunsPerAttempt(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var n atomic.Int32
	cfg := defaultConfig(server.URL)
	cfg.AuthFunc = func(_ context.Context, req *http.Request) {
		req.Header.Set("Authorization", "Bearer token-"+string(rune('0'+n.Add(1))))
	}
	c := newTestClient(t, cfg)

	for range 2 {
		_, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Bearer token-1", "Bearer token-2"}, tokens)
}

func TestClient_Do_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c := newTestClient(t, defaultConfig(baseURL))

	resp, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, c.CircuitCounts().ConsecutiveFailures)
}

func TestClient_Do_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := newTestClient(t, cfg)

	_, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/"})

	require.Error(t, err)
}

func TestClient_CircuitOpensOnServerErrorsOnly(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Circuit.MaxFailures = 2
	c := newTestClient(t, cfg)
	req := &Request{Method: http.MethodGet, Path: "/productos/99"}

	for range 5 {
		_, err := c.Do(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, c.CircuitState(), "4xx answers do not trip the breaker")

	status.Store(http.StatusServiceUnavailable)
	for range 2 {
		_, err := c.Do(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, StateOpen, c.CircuitState())

	_, err := c.Do(context.Background(), req)
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	c := newTestClient(t, cfg)
	req := &Request{Method: http.MethodGet, Path: "/"}

	_, err := c.Do(context.Background(), req)
	require.NoError(t, err, "burst allows the first request")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Do(ctx, req)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, StateClosed, c.CircuitState())
}

func TestClient_BodyIsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.MaxBodyBytes = 16
	c := newTestClient(t, cfg)

	resp, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)
	assert.Len(t, resp.Body, 16)
}

func TestClient_LogsSlowRequestsWithoutCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: logging.LevelTrace}))

	cfg := defaultConfig(server.URL)
	cfg.SlowThreshold = 10 * time.Millisecond
	cfg.AuthFunc = func(_ context.Context, req *http.Request) {
		req.Header.Set("Authorization", "Bearer super-secret-token")
	}
	c := newTestClient(t, cfg)

	ctx := logging.WithContext(context.Background(), logger)
	_, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/productos"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "slow upstream request")
	assert.Contains(t, out, `"downstream":"ecomarket"`)
	assert.NotContains(t, out, "super-secret-token")
}

func TestClient_BuildURL(t *testing.T) {
	c := newTestClient(t, defaultConfig("https://api.example.com/api/"))

	assert.Equal(t, "https://api.example.com/api/productos", c.buildURL("productos", nil))
	assert.Equal(t, "https://api.example.com/api/productos", c.buildURL("/productos", nil))
	assert.Equal(t, "https://api.example.com/api/productos?categoria=miel&orden=precio",
		c.buildURL("/productos", url.Values{"orden": {"precio"}, "categoria": {"miel"}}))
}

func TestResponse_MediaType(t *testing.T) {
	tests := map[string]string{
		"application/json":                "application/json",
		"Application/JSON; charset=utf-8": "application/json",
		"text/html":                       "text/html",
		"":                                "",
	}

	for header, want := range tests {
		r := &Response{Header: http.Header{}}
		if header != "" {
			r.Header.Set("Content-Type", header)
		}
		assert.Equal(t, want, r.MediaType(), header)
	}
}
