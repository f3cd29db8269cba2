package dto

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

// MapError maps an EcoMarket operation failure to the gateway status
// and error envelope:
//
//	validation      400
//	authentication  401
//	not found       404
//	conflict        409
//	server error    502
//	generic         502
//	transport       503
//
// Anything else is a 500 with a generic message.
func MapError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		return http.StatusServiceUnavailable, NewErrorResponseWithDetails(
			ErrorCodeUnavailable,
			"EcoMarket is unreachable",
			map[string]string{"transport": te.Kind.String()},
		)
	}

	var be *domain.BusinessError
	if !errors.As(err, &be) {
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}

	details := map[string]string{}
	if be.Status != 0 {
		details["upstreamStatus"] = strconv.Itoa(be.Status)
	}

	if be.Code != "" {
		details["upstreamCode"] = be.Code
	}

	status, code := statusForKind(be.Kind)

	return status, NewErrorResponseWithDetails(code, be.Message, details)
}

func statusForKind(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest, ErrorCodeValidation
	case domain.KindAuthentication:
		return http.StatusUnauthorized, ErrorCodeUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound, ErrorCodeNotFound
	case domain.KindConflict:
		return http.StatusConflict, ErrorCodeConflict
	default:
		return http.StatusBadGateway, ErrorCodeUpstream
	}
}

// HandleError writes the mapped error envelope with the trace ID.
// Upstream and internal failures are logged; client errors are not.
func HandleError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status, errResp := MapError(err)
	errResp.WithTraceID(TraceID(ctx))

	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).ErrorContext(ctx, "request failed",
			slog.Int("status", status),
			slog.Any("error", err),
			slog.String("trace_id", errResp.TraceID),
		)
	}

	_ = c.Error(err)
	c.JSON(status, errResp)
}

// HandleBindError writes a 400 for a body or query that could not be
// decoded or failed its validate tags.
func HandleBindError(c *gin.Context, err error) {
	var errResp *ErrorResponse

	if errors.Is(err, ErrValidation) {
		errResp = NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", ValidationErrors(err))
	} else {
		errResp = NewErrorResponse(ErrorCodeBadRequest, "malformed request body")
	}

	c.JSON(http.StatusBadRequest, errResp.WithTraceID(TraceID(c.Request.Context())))
}
