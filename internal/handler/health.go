package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
    DB    Pinger
    Redis *redis.Client // optional
}

// Health is the liveness probe: a plain "ok" whenever the process serves.
func (h *HealthHandler) Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready is the readiness probe. It pings MySQL, and Redis when configured,
// and answers 503 naming the dependency that failed.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    checks := echo.Map{}
    status := http.StatusOK
    if err := h.DB.PingContext(ctx); err != nil {
        checks["mysql"] = err.Error()
        status = http.StatusServiceUnavailable
    } else {
        checks["mysql"] = "ok"
    }
    if h.Redis != nil {
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            checks["redis"] = err.Error()
            status = http.StatusServiceUnavailable
        } else {
            checks["redis"] = "ok"
        }
    }
    return c.JSON(status, checks)
}
