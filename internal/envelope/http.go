package envelope

import (
	"encoding/json"
	"net/http"
)

// Status is the HTTP status an envelope is served with.
func (e Envelope[T]) Status() int {
	if e.Success {
		return http.StatusOK
	}
	return e.Code.HTTPStatus()
}

// Write serves env as JSON with the status derived from its code.
func Write[T any](w http.ResponseWriter, env Envelope[T]) {
	WriteStatus(w, env.Status(), env)
}

// WriteStatus serves env as JSON with an explicit status.
func WriteStatus[T any](w http.ResponseWriter, status int, env Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// WriteError serves a failed envelope without a payload.
func WriteError(w http.ResponseWriter, code Code, message string) {
	Write(w, Fail[any](code, message))
}
