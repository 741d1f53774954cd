// Package httpapi provides a pluggable HTTP API client.
//
// A Client drives one request lifecycle per call and composes three
// independently swappable collaborators:
//
//   - a RequestShaper (JSONRequest, MultipartRequest) that decides whether a
//     body is permitted, declares Content-Type and builds the transport
//     arguments;
//   - a ResponseShaper (JSONResponse, StreamResponse) that declares Accept and
//     consumes the raw response, or is filled with a canned placeholder when
//     the call is short-circuited;
//   - an Authorizer (NoAuth, TokenAuth, BasicAuth, OAuth2Auth) that contributes
//     credential headers.
//
// Headers are folded in a fixed order: caller headers, request shaper,
// response shaper, authorizer. The authorizer runs last so its headers can
// never be shadowed.
//
// Every call gets its own transport which is released on return. Connection
// and timeout failures are retried under TransportPolicy before any error is
// translated into an *Error carrying an HTTP-style status code. Per-service
// clients wrap whole operations in Retry with OperationPolicy; because that
// layer retries any failure, non-idempotent operations may execute twice.
package httpapi
