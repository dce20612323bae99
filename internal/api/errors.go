// Package api provides error types for document-storage API responses.
package api

import (
	"errors"
	"strings"
)

// ErrRemoteUnavailable indicates the document-storage service could not be
// reached or returned a failure status. Callers render an empty listing and
// leave the cache entry absent so a later retry can succeed.
var ErrRemoteUnavailable = errors.New("document service unavailable")

// ErrMalformedResponse indicates the service responded but the payload was
// missing expected fields. Treated identically to ErrRemoteUnavailable by the
// navigation layer (defensive defaulting to empty lists).
var ErrMalformedResponse = errors.New("malformed document service response")

// IsUnavailable reports whether an error represents a degraded-but-recoverable
// remote failure (either taxonomy class). Frontends use it to choose between
// showing the degraded empty listing and surfacing the error.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrMalformedResponse) {
		return true
	}

	// Transport-level failures arrive wrapped from net/http; match the common
	// patterns rather than importing every transport error type.
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"no such host",
		"timeout",
		"unexpected eof",
		"service unavailable",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
