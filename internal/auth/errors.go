// internal/auth/errors.go
package auth

import "errors"

// Rejection reasons returned by Verify. Every one of them is an
// authentication failure to the caller; none of them is a fault.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrUnknownTenant    = errors.New("unknown tenant")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrQSHMismatch      = errors.New("query string hash mismatch")
	ErrExpiredToken     = errors.New("expired token")
)

// IsAuthFailure reports whether err is a business-as-usual rejection, as
// opposed to a backend fault that should surface as a server error.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrUnknownTenant) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrQSHMismatch) ||
		errors.Is(err, ErrExpiredToken)
}
