package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ForwardAuthorization keeps the inbound Authorization header so the EcoMarket
// client can present the caller's own credentials upstream. Only bearer
// credentials are kept.
func ForwardAuthorization() gin.HandlerFunc {
	return func(c *gin.Context) {
		value := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(value) > len("Bearer ") && strings.EqualFold(value[:len("Bearer ")], "Bearer ") {
			c.Request = c.Request.WithContext(ContextWithAuthorization(c.Request.Context(), value))
		}

		c.Next()
	}
}

// BearerAuth returns the outbound credential hook of the EcoMarket client.
// A non-empty static token always wins; otherwise the caller's forwarded
// Authorization header is used. Nothing is set when neither exists.
func BearerAuth(staticToken string) func(ctx context.Context, req *http.Request) {
	return func(ctx context.Context, req *http.Request) {
		if staticToken != "" {
			req.Header.Set("Authorization", "Bearer "+staticToken)
			return
		}

		if forwarded := AuthorizationFromContext(ctx); forwarded != "" {
			req.Header.Set("Authorization", forwarded)
		}
	}
}
