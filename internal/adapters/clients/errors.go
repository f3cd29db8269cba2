// Package clients provides the transport layer for upstream HTTP services.
package clients

import "errors"

// Transport-level refusals. They mean no request reached the upstream and
// are translated into domain errors by the ACL.
var (
	// ErrCircuitOpen is returned while the circuit breaker blocks requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRateLimited is returned when waiting for the rate limiter failed,
	// typically because the context would expire first.
	ErrRateLimited = errors.New("rate limit wait aborted")
)
