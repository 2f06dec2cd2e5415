package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fooddelivery-client/internal/config"
	"fooddelivery-client/internal/logger"

	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// Open connects to Postgres for the client_state storage driver and checks
// the connection before returning it.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	return openWithDriver(ctx, cfg, "postgres")
}

func openWithDriver(ctx context.Context, cfg config.DBConfig, driver string) (*sql.DB, error) {
	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L().Info("database connection established")
	return db, nil
}
