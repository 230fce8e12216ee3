package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// Checker reports whether the record store can be reached.
type Checker func(ctx context.Context) error

// PoolChecker pings pool.
func PoolChecker(pool *pgxpool.Pool) Checker {
	return pool.Ping
}

// healthTimeout bounds a single health probe.
const healthTimeout = 5 * time.Second

// Health is the body of the /health response.
type Health struct {
	Status  string     `json:"status"`
	Backend string     `json:"backend"`
	Error   string     `json:"error,omitempty"`
	Pool    *PoolStats `json:"pool,omitempty"`
}

// PoolStats is a snapshot of the Postgres pool, present only for the
// postgres backend.
type PoolStats struct {
	Total           int32  `json:"total_conns"`
	Idle            int32  `json:"idle_conns"`
	Acquired        int32  `json:"acquired_conns"`
	Max             int32  `json:"max_conns"`
	Acquires        int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

func snapshot(pool *pgxpool.Pool) *PoolStats {
	if pool == nil {
		return nil
	}
	s := pool.Stat()
	return &PoolStats{
		Total:           s.TotalConns(),
		Idle:            s.IdleConns(),
		Acquired:        s.AcquiredConns(),
		Max:             s.MaxConns(),
		Acquires:        s.AcquireCount(),
		AcquireDuration: s.AcquireDuration().String(),
	}
}

// HealthHandler answers 200 when check succeeds within healthTimeout and
// 503 otherwise.
func HealthHandler(backend string, check Checker, pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		h := Health{Status: "healthy", Backend: backend}
		err := check(ctx)
		h.Pool = snapshot(pool)
		if err != nil {
			h.Status = "unhealthy"
			h.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		return c.JSON(http.StatusOK, h)
	}
}
