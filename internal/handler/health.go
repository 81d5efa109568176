package handler // HTTP handlers for the gym API

import (
	"context"
	"database/sql"
	"net/http" // status codes
	"time"

	"github.com/labstack/echo/v4" // web framework
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and, when asked, the state of the store and
// the cache.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client // optional
}

// Health answers "ok" while the process is up.  Load balancers poll it.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready pings MySQL (required) and redis (when configured).  It answers 503
// with the failing dependency when one is down.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := echo.Map{"db": "ok"}
	code := http.StatusOK
	if err := h.DB.PingContext(ctx); err != nil {
		status["db"] = "down"
		code = http.StatusServiceUnavailable
	}
	if h.Redis != nil {
		status["cache"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			// The cache is optional, so a redis outage does not fail readiness.
			status["cache"] = "down"
		}
	}
	return c.JSON(code, status)
}
