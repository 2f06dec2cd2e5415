package middleware

import (
	"net/http"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/logger"

	"go.uber.org/zap"
)

// Recover turns a handler panic into a 500 envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromCtx(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				envelope.WriteStatus(w, http.StatusInternalServerError,
					envelope.Fail[any](envelope.CodeApplication, "Something went wrong"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
