package acl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/retry"
)

func response(status int, contentType, body string) *clients.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	return &clients.Response{StatusCode: status, Header: h, Body: []byte(body)}
}

func requireBusinessError(t *testing.T, err error) *domain.BusinessError {
	t.Helper()

	var be *domain.BusinessError
	require.ErrorAs(t, err, &be)

	return be
}

func TestClassify_SuccessPassesThrough(t *testing.T) {
	for _, status := range []int{200, 201, 202, 299} {
		assert.NoError(t, Classify(response(status, "application/json", `{}`), ExpectJSON), status)
	}

	assert.NoError(t, Classify(response(http.StatusNoContent, "", ""), ExpectJSON))
	assert.NoError(t, Classify(response(http.StatusOK, "text/plain", "pong"), Expectation{}))
}

func TestClassify_StatusKinds(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.Kind
	}{
		{http.StatusConflict, domain.KindConflict},
		{http.StatusUnauthorized, domain.KindAuthentication},
		{http.StatusNotFound, domain.KindNotFound},
		{http.StatusBadRequest, domain.KindValidation},
		{http.StatusForbidden, domain.KindValidation},
		{http.StatusUnprocessableEntity, domain.KindValidation},
		{http.StatusTooManyRequests, domain.KindValidation},
		{http.StatusInternalServerError, domain.KindServer},
		{http.StatusBadGateway, domain.KindServer},
		{599, domain.KindServer},
		{http.StatusContinue, domain.KindGeneric},
		{http.StatusMovedPermanently, domain.KindGeneric},
		{http.StatusNotModified, domain.KindGeneric},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			be := requireBusinessError(t, Classify(response(tt.status, "text/plain", "nope"), ExpectJSON))

			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, []byte("nope"), be.Body)
		})
	}
}

func TestClassify_ConflictKeepsRawBody(t *testing.T) {
	be := requireBusinessError(t, Classify(response(http.StatusConflict, "text/plain", "version 3 != 4"), ExpectJSON))

	assert.True(t, domain.IsConflict(be))
	assert.Equal(t, "resource or version conflict: version 3 != 4", be.Message)
	assert.Empty(t, be.Code)
}

func TestClassify_CodedErrorsKeepBodyText(t *testing.T) {
	body := `{"error":{"code":"INSUFFICIENT_STOCK","message":"quedan 2 unidades"}}`

	conflict := requireBusinessError(t, Classify(response(http.StatusConflict, "application/json", body), ExpectJSON))
	assert.Equal(t, domain.CodeStockOut, conflict.Code)
	assert.Contains(t, conflict.Message, "out of stock")
	assert.Contains(t, conflict.Message, "quedan 2 unidades")

	auth := requireBusinessError(t, Classify(response(http.StatusUnauthorized, "application/json",
		`{"code":"INVALID_TOKEN","message":"jwt expired"}`), ExpectJSON))
	assert.Equal(t, "authentication failed: session expired", auth.Message)
}

func TestClassify_ValidationMessageHasStatusAndBody(t *testing.T) {
	be := requireBusinessError(t, Classify(response(http.StatusUnprocessableEntity, "text/plain", "precio must be > 0"), ExpectJSON))

	assert.Contains(t, be.Message, "422")
	assert.Contains(t, be.Message, "precio must be > 0")
}

func TestClassify_ServerMessageHasStatus(t *testing.T) {
	be := requireBusinessError(t, Classify(response(http.StatusServiceUnavailable, "", ""), ExpectJSON))

	assert.Equal(t, "server error with status 503", be.Message)
	assert.True(t, be.Retryable())
}

func TestClassify_BodyCodes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    domain.Kind
		code    string
		message string
	}{
		{
			name:    "insufficient stock keeps status kind",
			status:  http.StatusConflict,
			body:    `{"code":"INSUFFICIENT_STOCK","message":"stock 0"}`,
			kind:    domain.KindConflict,
			code:    domain.CodeStockOut,
			message: `resource or version conflict: out of stock (body: {"code":"INSUFFICIENT_STOCK","message":"stock 0"})`,
		},
		{
			name:    "insufficient stock on 400",
			status:  http.StatusBadRequest,
			body:    `{"code":"INSUFFICIENT_STOCK"}`,
			kind:    domain.KindValidation,
			code:    domain.CodeStockOut,
			message: `request rejected with status 400: out of stock (body: {"code":"INSUFFICIENT_STOCK"})`,
		},
		{
			name:    "invalid token nested",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"code":"INVALID_TOKEN","message":"jwt expired"}}`,
			kind:    domain.KindAuthentication,
			code:    domain.CodeAuthExpired,
			message: "authentication failed: session expired",
		},
		{
			name:    "unknown code uses body message",
			status:  http.StatusBadRequest,
			body:    `{"code":"PRICE_TOO_LOW","message":"precio minimo 10"}`,
			kind:    domain.KindValidation,
			code:    domain.CodeGenericError,
			message: `request rejected with status 400: precio minimo 10 (body: {"code":"PRICE_TOO_LOW","message":"precio minimo 10"})`,
		},
		{
			name:    "unknown code without message",
			status:  http.StatusInternalServerError,
			body:    `{"code":"DB_DOWN"}`,
			kind:    domain.KindServer,
			code:    domain.CodeGenericError,
			message: "server error with status 500: unexpected error",
		},
		{
			name:    "json without code",
			status:  http.StatusNotFound,
			body:    `{"message":"no existe"}`,
			kind:    domain.KindNotFound,
			message: "resource not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := requireBusinessError(t, Classify(response(tt.status, "application/json", tt.body), ExpectJSON))

			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.code, be.Code)
			assert.Equal(t, tt.message, be.Message)
		})
	}
}

func TestClassify_NotJSON(t *testing.T) {
	be := requireBusinessError(t, Classify(response(http.StatusOK, "text/html", "<html></html>"), ExpectJSON))

	assert.Equal(t, domain.KindValidation, be.Kind)
	assert.Equal(t, "response is not JSON: text/html", be.Message)

	be = requireBusinessError(t, Classify(response(http.StatusOK, "", `{"id":1}`), ExpectJSON))
	assert.Equal(t, "response is not JSON", be.Message)
}

func TestClassify_JSONMediaTypes(t *testing.T) {
	for _, ct := range []string{"application/json", "application/json; charset=utf-8", "Application/JSON", "application/problem+json"} {
		assert.NoError(t, Classify(response(http.StatusOK, ct, `{"ok":true}`), ExpectJSON), ct)
	}
}

func TestClassify_EmptyAndMalformedBodiesDiffer(t *testing.T) {
	empty := requireBusinessError(t, Classify(response(http.StatusOK, "application/json", ""), ExpectJSON))
	blank := requireBusinessError(t, Classify(response(http.StatusOK, "application/json", "  \n"), ExpectJSON))
	malformed := requireBusinessError(t, Classify(response(http.StatusOK, "application/json", `{"id":`), ExpectJSON))

	assert.Equal(t, "empty body", empty.Message)
	assert.Equal(t, "empty body", blank.Message)
	assert.Equal(t, "malformed JSON", malformed.Message)
	assert.NotEqual(t, empty.Message, malformed.Message)

	for _, be := range []*domain.BusinessError{empty, blank, malformed} {
		assert.Equal(t, domain.KindValidation, be.Kind)
		assert.False(t, retry.IsRetryable(be))
	}
}

func TestClassify_ExpectedStatus(t *testing.T) {
	assert.NoError(t, Classify(response(http.StatusCreated, "application/json", `{}`), ExpectCreated))
	assert.NoError(t, Classify(response(http.StatusNoContent, "", ""), ExpectNoContent))

	be := requireBusinessError(t, Classify(response(http.StatusOK, "application/json", `{}`), ExpectCreated))
	assert.Equal(t, domain.KindValidation, be.Kind)
	assert.Equal(t, "expected status 201, got 200", be.Message)
}

func TestClassify_Idempotent(t *testing.T) {
	inputs := []*clients.Response{
		response(http.StatusConflict, "application/json", `{"code":"INSUFFICIENT_STOCK"}`),
		response(http.StatusBadRequest, "text/plain", "bad"),
		response(http.StatusOK, "text/html", "<p>"),
		response(http.StatusBadGateway, "", ""),
	}

	for _, resp := range inputs {
		assert.Equal(t, Classify(resp, ExpectJSON), Classify(resp, ExpectJSON))
	}
}

func TestClassify_RetryabilityByStatusRange(t *testing.T) {
	for status := 400; status < 500; status++ {
		err := Classify(response(status, "text/plain", "x"), ExpectJSON)
		assert.False(t, retry.IsRetryable(err), "status %d", status)
	}

	for status := 500; status < 600; status++ {
		err := Classify(response(status, "text/plain", "x"), ExpectJSON)
		assert.True(t, retry.IsRetryable(err), "status %d", status)
	}
}

// timeoutError is a net.Error that reports a timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		kind domain.TransportKind
	}{
		{"deadline", context.DeadlineExceeded, domain.TransportTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), domain.TransportTimeout},
		{"net timeout", &net.OpError{Op: "read", Err: timeoutError{}}, domain.TransportTimeout},
		{"connection refused", refused, domain.TransportConnectionRefused},
		{"other", errors.New("tls: handshake failure"), domain.TransportOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyTransport(tt.err)

			var te *domain.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.kind, te.Kind)
			require.ErrorIs(t, err, tt.err)
			assert.True(t, domain.IsTransport(err))
			_, isBusiness := domain.KindOf(err)
			assert.False(t, isBusiness)
			assert.True(t, retry.IsRetryable(err))
		})
	}
}

func TestClassifyTransport_NilAndAlreadyClassified(t *testing.T) {
	assert.NoError(t, ClassifyTransport(nil))

	te := domain.NewTransportError(domain.TransportTimeout, errors.New("slow"))
	assert.Same(t, te, ClassifyTransport(te))
}

func TestClassifyTransport_CancelledIsNotRetried(t *testing.T) {
	err := ClassifyTransport(fmt.Errorf("do: %w", context.Canceled))

	assert.True(t, domain.IsTransport(err))
	assert.False(t, retry.IsRetryable(err))
}
