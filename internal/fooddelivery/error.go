package fooddelivery

import (
	"errors"
	"net/http"
	"strings"

	"fooddelivery-client/internal/envelope"
)

var (
	ErrBaseURLRequired = errors.New("food delivery base url is required")

	errNotAList = errors.New("response data is not a list")
)

// vendorConflictPhrase is the wording older backends use when a dish from a
// second restaurant is added ("You can only order from one restaurant at a time").
const vendorConflictPhrase = "one restaurant"

// IsVendorConflict reports whether a failed envelope is a vendor conflict,
// by structured code first and by the legacy message wording otherwise.
func IsVendorConflict(code envelope.Code, message string) bool {
	if code == envelope.CodeVendorConflict {
		return true
	}
	return strings.Contains(strings.ToLower(message), vendorConflictPhrase)
}

// classify picks a code for a success:false response that came without one.
func classify(status int, message string) envelope.Code {
	switch {
	case IsVendorConflict(envelope.CodeNone, message):
		return envelope.CodeVendorConflict
	case status == http.StatusNotFound:
		return envelope.CodeNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return envelope.CodeUnauthorized
	case status == http.StatusTooManyRequests:
		return envelope.CodeRateLimit
	default:
		return envelope.CodeApplication
	}
}
