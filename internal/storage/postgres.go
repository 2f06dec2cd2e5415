package storage

import (
	"context"
	"database/sql"
	"errors"

	"fooddelivery-client/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgres stores client state in the client_state table created by
// cmd/migrate.
func NewPostgres(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (p *postgresStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	const q = `SELECT value FROM client_state WHERE key = $1`

	var value string
	err := p.db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("client state query failed",
			zap.String("repo", "ClientState"),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", err
	}
	return value, nil
}

func (p *postgresStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	const q = `
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := p.db.ExecContext(ctx, q, key, value); err != nil {
		logger.FromCtx(ctx).Error("client state upsert failed",
			zap.String("repo", "ClientState"),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *postgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	const q = `DELETE FROM client_state WHERE key = ANY($1)`

	if _, err := p.db.ExecContext(ctx, q, pq.Array(keys)); err != nil {
		logger.FromCtx(ctx).Error("client state delete failed",
			zap.String("repo", "ClientState"),
			zap.Strings("keys", keys),
			zap.Error(err),
		)
		return err
	}
	return nil
}
