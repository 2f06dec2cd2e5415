package envelope

import "net/http"

// Code classifies a failed envelope. Codes sent by the backend are passed
// through verbatim; the ones below are assigned by the client.
type Code string

const (
	CodeNone              Code = ""
	CodeVendorConflict    Code = "VENDOR_CONFLICT"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNetwork           Code = "NETWORK_ERROR"
	CodeHTTP              Code = "HTTP_ERROR"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeApplication       Code = "APPLICATION_ERROR"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
)

var httpStatusByCode = map[Code]int{
	CodeVendorConflict:    http.StatusConflict,
	CodeValidation:        http.StatusUnprocessableEntity,
	CodeNetwork:           http.StatusBadGateway,
	CodeHTTP:              http.StatusBadGateway,
	CodeMalformedResponse: http.StatusBadGateway,
	CodeNotFound:          http.StatusNotFound,
	CodeUnauthorized:      http.StatusUnauthorized,
	CodeApplication:       http.StatusBadRequest,
	CodeRateLimit:         http.StatusTooManyRequests,
}

// HTTPStatus maps a code to the status the API layer answers with.
// Unknown server codes are treated as application failures.
func (c Code) HTTPStatus() int {
	if status, ok := httpStatusByCode[c]; ok {
		return status
	}
	return http.StatusBadRequest
}

func (c Code) String() string {
	return string(c)
}
