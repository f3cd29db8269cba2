// Package acl is the Anti-Corruption Layer between the gateway and the
// EcoMarket API.
//
// Everything EcoMarket-specific stops here:
//
//   - Spanish wire DTOs ("nombre", "precio", "productor") never leave the package
//   - upstream responses are classified into domain errors by [Classify]
//   - transport failures become [domain.TransportError] via [ClassifyTransport]
//   - every call runs through the retry engine, one attempt per transport call
//
// # Classification
//
// [Classify] is a pure function of a single response. The error kind always
// follows the status code; a machine code found in the body only enriches the
// message:
//
//	409          Conflict
//	401          Authentication
//	404          NotFound
//	other 4xx    Validation
//	5xx          ServerError (retryable)
//	1xx, 3xx     Generic (retryable)
//
// A 2xx answer is accepted unless the caller expected JSON and the body is
// not JSON, is empty, or does not parse.
//
// # Adding an endpoint
//
//  1. Define the external DTO in ecomarket_dto.go with a [Translator]
//  2. Send the request through the client's retried call with an [Expectation]
//  3. Decode the accepted response and translate it
package acl
