package auth

import (
	"context"
	"errors"

	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/storage"

	"go.uber.org/zap"
)

// StoredCredentials reads the token and profile a session persisted, the
// way the web pages read them back from local storage on every request.
type StoredCredentials struct {
	Store storage.Store
}

func (c StoredCredentials) Credentials(ctx context.Context) (token, userID string) {
	token, err := c.Store.Get(ctx, storage.KeyToken)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.FromCtx(ctx).Warn("reading stored token failed", zap.Error(err))
		}
		token = DefaultToken
	}

	var p Profile
	if err := storage.GetJSON(ctx, c.Store, storage.KeyUser, &p); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.FromCtx(ctx).Warn("reading stored profile failed", zap.Error(err))
	}

	return token, DeriveUserID(p)
}

// Persist stores the identity so later requests of the session reuse it.
func Persist(ctx context.Context, s storage.Store, id Identity) error {
	if id.Token != "" {
		if err := s.Set(ctx, storage.KeyToken, id.Token); err != nil {
			return err
		}
	}
	return storage.SetJSON(ctx, s, storage.KeyUser, id.Profile)
}

// Forget removes the stored identity (logout).
func Forget(ctx context.Context, s storage.Store) error {
	return s.Delete(ctx, storage.KeyToken, storage.KeyUser)
}
