package middleware

import (
	"net/http"

	"fooddelivery-client/internal/auth"
	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/logger"

	"go.uber.org/zap"
)

const (
	msgMissingToken = "Please log in to continue"
	msgInvalidToken = "Your session has expired, please log in again"
)

// Auth requires an access token on every request. With a secret the token
// must be a valid HS256 JWT; without one an undecodable token still passes
// with an empty profile and the backend decides.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractAccessToken(r)
			if token == "" {
				envelope.WriteError(w, envelope.CodeUnauthorized, msgMissingToken)
				return
			}

			profile, err := auth.ParseProfile(token, secret)
			if err != nil {
				if secret != "" {
					logger.FromCtx(r.Context()).Warn("rejected access token", zap.Error(err))
					envelope.WriteError(w, envelope.CodeUnauthorized, msgInvalidToken)
					return
				}
				profile = auth.Profile{}
			}

			id := auth.Identity{Token: token, Profile: profile}
			ctx := WithIdentity(r.Context(), id)
			ctx = logger.WithUserID(ctx, id.UserID())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
