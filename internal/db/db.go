package db

import (
	"context"
	"fmt"

	"trading-assistant/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

// InitPostgres opens the shared pool. An empty dsn leaves Pool nil and the
// caller falls back to in-process conversation memory.
func InitPostgres(ctx context.Context, dsn string) error {
	if dsn == "" {
		logger.Get().Infow("DATABASE_URL not set, skipping Postgres connection")
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	Pool = pool
	logger.Get().Infow("connected to postgres")
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
