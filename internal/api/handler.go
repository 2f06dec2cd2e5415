package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/middleware"
	"fooddelivery-client/internal/session"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	msgUnavailable = "Service is shutting down, please retry"
	msgBadBody     = "Request body must be valid JSON"
)

var errEmptyBody = errors.New("empty request body")

type handler struct {
	sessions      Sessions
	imageBaseURL  string
	trackInterval time.Duration
}

// session resolves the caller's session, answering the request itself
// when that fails.
func (h *handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		envelope.WriteError(w, envelope.CodeUnauthorized, "Please log in to continue")
		return nil, false
	}

	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to resolve session", zap.Error(err))
		if errors.Is(err, session.ErrManagerClosed) {
			envelope.WriteStatus(w, http.StatusServiceUnavailable,
				envelope.Fail[any](envelope.CodeApplication, msgUnavailable))
			return nil, false
		}
		envelope.WriteStatus(w, http.StatusInternalServerError,
			envelope.Fail[any](envelope.CodeApplication, "Could not start your session"))
		return nil, false
	}
	return s, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		err = errEmptyBody
	}
	if err != nil {
		envelope.Write(w, envelope.Failf[any](envelope.CodeValidation, "%s: %v", msgBadBody, err))
		return false
	}
	return true
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be true or false")
	}
	return &v, nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return v, nil
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	envelope.Write(w, envelope.OK(map[string]string{"status": "ok"}, ""))
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromCtx(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	envelope.WriteStatus(w, http.StatusInternalServerError,
		envelope.Fail[any](envelope.CodeApplication, "Something went wrong, please retry"))
}
