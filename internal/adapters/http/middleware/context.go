// Package middleware provides the gin middleware of the gateway. Values the
// outbound EcoMarket client needs (request ID, correlation ID, inbound
// credentials) are copied into the request context.Context.
package middleware

import "context"

type contextKey string

const (
	ctxKeyRequestID     contextKey = "request_id"
	ctxKeyCorrelationID contextKey = "correlation_id"
	ctxKeyAuthorization contextKey = "authorization"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	if v, ok := ctx.Value(key).(string); ok {
		return v
	}

	return ""
}

// RequestIDFromContext returns the request ID, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxKeyRequestID)
}

// CorrelationIDFromContext returns the correlation ID, or "" if none was set.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxKeyCorrelationID)
}

// AuthorizationFromContext returns the inbound Authorization header value,
// or "" if the caller sent none.
func AuthorizationFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxKeyAuthorization)
}

// ContextWithRequestID stores a request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID stores a correlation ID in the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// ContextWithAuthorization stores the inbound Authorization value in the context.
func ContextWithAuthorization(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, ctxKeyAuthorization, value)
}
