// Package domain contains the catalog types and the error taxonomy shared by
// the gateway. Domain errors describe what went wrong with an EcoMarket
// operation, NOT how it is rendered; adapters map them to HTTP responses.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrValidation indicates the request or the upstream payload was rejected as invalid.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a resource or version conflict.
	ErrConflict = errors.New("conflict")

	// ErrAuthentication indicates missing, invalid or expired credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrServer indicates the upstream failed with a 5xx status.
	ErrServer = errors.New("server error")

	// ErrGeneric covers responses outside the known categories.
	ErrGeneric = errors.New("unexpected response")

	// ErrTransport indicates no HTTP response was received at all.
	ErrTransport = errors.New("transport failure")
)

// Kind labels a BusinessError.
type Kind int

// Business error kinds.
const (
	KindGeneric Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindNotFound
	KindServer
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server_error"
	default:
		return "generic"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	case KindAuthentication:
		return ErrAuthentication
	case KindNotFound:
		return ErrNotFound
	case KindServer:
		return ErrServer
	default:
		return ErrGeneric
	}
}

// Machine codes attached to business errors.
const (
	CodeStockOut     = "STOCK_OUT"
	CodeAuthExpired  = "AUTH_EXPIRED"
	CodeGenericError = "GENERIC_ERROR"
)

// BusinessError is a classified failure of an EcoMarket operation.
// Status is 0 when the error did not originate from an upstream response.
type BusinessError struct {
	Kind    Kind
	Message string
	Code    string
	Status  int
	Body    []byte
}

// Error implements the error interface.
func (e *BusinessError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, e.Code)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *BusinessError) Unwrap() error {
	return e.Kind.sentinel()
}

// StatusCode returns the upstream HTTP status, or 0 if there was none.
func (e *BusinessError) StatusCode() int {
	return e.Status
}

// Retryable reports whether repeating the operation could succeed. Only
// upstream server failures and unrecognised responses qualify.
func (e *BusinessError) Retryable() bool {
	return e.Kind == KindServer || e.Kind == KindGeneric
}

// NewBusinessError creates a business error from an upstream response.
func NewBusinessError(kind Kind, status int, message string, body []byte) *BusinessError {
	return &BusinessError{Kind: kind, Status: status, Message: message, Body: body}
}

// NewValidationError creates a validation error raised locally, before any upstream call.
func NewValidationError(field, message string) error {
	if field != "" {
		message = fmt.Sprintf("%s: %s", field, message)
	}

	return &BusinessError{Kind: KindValidation, Message: message}
}

// NewNotFoundError creates a not found error for an entity.
func NewNotFoundError(entity, id string) error {
	msg := entity + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s with id %q not found", entity, id)
	}

	return &BusinessError{Kind: KindNotFound, Message: msg}
}

// TransportKind distinguishes transport failures.
type TransportKind int

// Transport failure kinds.
const (
	TransportOther TransportKind = iota
	TransportTimeout
	TransportConnectionRefused
)

// String returns the lowercase name of the kind.
func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnectionRefused:
		return "connection_refused"
	default:
		return "other"
	}
}

// TransportError reports that no HTTP response was obtained.
type TransportError struct {
	Kind  TransportKind
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure (%s): %v", e.Kind, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Cause}
}

// Retryable always returns true; a later attempt may reach the upstream.
func (e *TransportError) Retryable() bool {
	return true
}

// NewTransportError creates a transport error.
func NewTransportError(kind TransportKind, cause error) error {
	return &TransportError{Kind: kind, Cause: cause}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsAuthentication checks if an error is an authentication error.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsServer checks if an error is an upstream server error.
func IsServer(err error) bool {
	return errors.Is(err, ErrServer)
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// KindOf returns the business kind of err, if it is a BusinessError.
func KindOf(err error) (Kind, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind, true
	}

	return KindGeneric, false
}
