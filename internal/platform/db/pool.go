package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig configures the pool behind the postgres document store.
type PoolConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
	// PingAttempts bounds the startup connection check; the database may
	// still be starting when the server is.
	PingAttempts int
	PingInterval time.Duration
}

// NewPool opens a pool and waits until the database answers a ping.
func NewPool(ctx context.Context, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = "patient-server"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := waitReady(ctx, pool.Ping, pc.PingAttempts, pc.PingInterval); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// waitReady calls ping up to attempts times, interval apart.
func waitReady(ctx context.Context, ping Checker, attempts int, interval time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; ; i++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if i == attempts {
			return fmt.Errorf("ping database (%d attempts): %w", attempts, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}
