package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	original_price   NUMERIC(12,2) NOT NULL DEFAULT 0,
	discount_percent BIGINT NOT NULL DEFAULT 0,
	discounted_price NUMERIC(12,2) NOT NULL DEFAULT 0,
	quantity         INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	is_featured      BOOLEAN NOT NULL DEFAULT false,
	expiry_date      TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Connect opens the product store pool and pings it once.
func Connect(ctx context.Context, dsn string, maxConns int32, log *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	log.Info("postgres connected",
		zap.String("host", cfg.ConnConfig.Host), zap.String("db", cfg.ConnConfig.Database), zap.Int32("max_conns", cfg.MaxConns))
	return pool, nil
}

// EnsureSchema creates the products table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
