package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
)

// Expectation describes what a successful answer must look like.
type Expectation struct {
	// JSON requires a JSON body on every 2xx except 204.
	JSON bool
	// Status pins the success status. Zero accepts any 2xx.
	Status int
}

// Common expectations.
var (
	ExpectJSON      = Expectation{JSON: true}
	ExpectCreated   = Expectation{JSON: true, Status: http.StatusCreated}
	ExpectNoContent = Expectation{Status: http.StatusNoContent}
)

// Upstream error codes with a known business meaning.
const (
	upstreamCodeInsufficientStock = "INSUFFICIENT_STOCK"
	upstreamCodeInvalidToken      = "INVALID_TOKEN"
)

// knownCodes maps upstream codes to a user-facing message and a domain code.
var knownCodes = map[string]struct {
	message string
	code    string
}{
	upstreamCodeInsufficientStock: {message: "out of stock", code: domain.CodeStockOut},
	upstreamCodeInvalidToken:      {message: "session expired", code: domain.CodeAuthExpired},
}

const genericDetail = "unexpected error"

// errorBody is the EcoMarket error payload. Both the nested
// {"error":{"code","message"}} and the flat {"code","message"} shapes occur.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *errorBody) code() string {
	if e.Error.Code != "" {
		return e.Error.Code
	}

	return e.Code
}

func (e *errorBody) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// parseErrorBody returns nil unless body is a JSON object carrying a code.
func parseErrorBody(body []byte) *errorBody {
	if len(body) == 0 {
		return nil
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return nil
	}

	if eb.code() == "" {
		return nil
	}

	return &eb
}

// Classify maps a completed exchange to nil or a *domain.BusinessError.
// It reads nothing but resp and expect, so equal inputs give equal errors.
func Classify(resp *clients.Response, expect Expectation) error {
	status := resp.StatusCode

	switch {
	case status >= 200 && status < 300:
		return classifySuccess(resp, expect)
	case status == http.StatusConflict:
		return businessError(domain.KindConflict, resp, "resource or version conflict")
	case status == http.StatusUnauthorized:
		return businessError(domain.KindAuthentication, resp, "authentication failed")
	case status == http.StatusNotFound:
		return businessError(domain.KindNotFound, resp, "resource not found")
	case status >= 400 && status < 500:
		return businessError(domain.KindValidation, resp, fmt.Sprintf("request rejected with status %d", status))
	case status >= 500:
		return businessError(domain.KindServer, resp, fmt.Sprintf("server error with status %d", status))
	default:
		return businessError(domain.KindGeneric, resp, fmt.Sprintf("unexpected status %d", status))
	}
}

func classifySuccess(resp *clients.Response, expect Expectation) error {
	if expect.Status != 0 && resp.StatusCode != expect.Status {
		return domain.NewBusinessError(domain.KindValidation, resp.StatusCode,
			fmt.Sprintf("expected status %d, got %d", expect.Status, resp.StatusCode), resp.Body)
	}

	if !expect.JSON || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if !isJSONMediaType(resp.MediaType()) {
		msg := "response is not JSON"
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			msg = fmt.Sprintf("%s: %s", msg, ct)
		}

		return domain.NewBusinessError(domain.KindValidation, resp.StatusCode, msg, resp.Body)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return domain.NewBusinessError(domain.KindValidation, resp.StatusCode, "empty body", resp.Body)
	}

	if !json.Valid(resp.Body) {
		return domain.NewBusinessError(domain.KindValidation, resp.StatusCode, "malformed JSON", resp.Body)
	}

	return nil
}

// businessError builds the error for a non-2xx answer. The kind is fixed by
// the caller; a body code only refines message and code. Validation and
// conflict messages always end with the raw body text.
func businessError(kind domain.Kind, resp *clients.Response, base string) error {
	be := domain.NewBusinessError(kind, resp.StatusCode, base, resp.Body)

	var detail string

	if eb := parseErrorBody(resp.Body); eb != nil {
		if known, ok := knownCodes[eb.code()]; ok {
			detail, be.Code = known.message, known.code
		} else {
			detail, be.Code = eb.message(), domain.CodeGenericError
			if detail == "" {
				detail = genericDetail
			}
		}
	}

	var raw string
	if kind == domain.KindValidation || kind == domain.KindConflict {
		raw = strings.TrimSpace(string(resp.Body))
	}

	switch {
	case detail != "" && raw != "":
		be.Message = fmt.Sprintf("%s: %s (body: %s)", base, detail, raw)
	case detail != "":
		be.Message = fmt.Sprintf("%s: %s", base, detail)
	case raw != "":
		be.Message = fmt.Sprintf("%s: %s", base, raw)
	}

	return be
}

// isJSONMediaType accepts application/json and the +json structured suffixes.
func isJSONMediaType(mt string) bool {
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// ClassifyTransport wraps a failure that produced no response into a
// *domain.TransportError. Circuit breaker rejections are marked permanent by
// the caller, not here.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		return err
	}

	return domain.NewTransportError(transportKind(err), err)
}

func transportKind(err error) domain.TransportKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.TransportTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.TransportTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.TransportConnectionRefused
	}

	return domain.TransportOther
}
