package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	IdleConns       int32  `json:"idleConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Database  string     `json:"database"`
	Pool      *PoolStats `json:"pool,omitempty"`
}

// HealthHandler reports liveness. The database is pinged with a short
// deadline; a failed ping turns the response into a 503.
func HealthHandler(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		status := HealthStatus{
			Status:    "OK",
			Message:   "Hospital Management System API is running",
			Timestamp: time.Now().UTC(),
			Database:  "up",
		}
		if pool, ok := db.(*pgxpool.Pool); ok {
			status.Pool = GetPoolStats(pool)
		}

		if err := db.Ping(ctx); err != nil {
			status.Status = "DEGRADED"
			status.Database = "down"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		return c.JSON(http.StatusOK, status)
	}
}
