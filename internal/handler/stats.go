package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/daykey"
    "github.com/iliyamo/soulspace-ledger/internal/middleware"
)

type updateStatsReq struct {
    DayCount    *int    `json:"dayCount"`
    LastVisited *string `json:"lastVisited"` // YYYY-MM-DD or RFC3339; omitted keeps the stored day
}

// GetStats: GET /user/stats.
func (h *LedgerHandler) GetStats(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    s, err := h.Stats.Stats(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toStats(s))
}

// UpdateStats: PUT /user/stats. Values that would move dayCount or
// lastVisited backwards are rejected with 400 and nothing changes.
func (h *LedgerHandler) UpdateStats(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req updateStatsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if req.DayCount == nil {
        return badRequest(c, "dayCount is required")
    }
    var last daykey.Key
    if req.LastVisited != nil && strings.TrimSpace(*req.LastVisited) != "" {
        k, err := h.Days.FromClient(strings.TrimSpace(*req.LastVisited))
        if err != nil {
            return badRequest(c, "lastVisited must be YYYY-MM-DD or an RFC3339 timestamp")
        }
        last = k
    }
    s, err := h.Stats.Update(c.Request().Context(), uid, *req.DayCount, last)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toStats(s))
}

// RecordVisit: POST /user/visit counts today for the caller.
func (h *LedgerHandler) RecordVisit(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    s, err := h.Stats.Visit(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toStats(s))
}

// Profile: GET /user/profile.
func (h *LedgerHandler) Profile(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    p, err := h.Stats.Profile(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toProfile(p))
}
