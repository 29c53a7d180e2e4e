package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/middleware"
    "github.com/iliyamo/soulspace-ledger/internal/model"
)

type addJournalReq struct {
    MoodLabel string `json:"moodLabel"`
    MoodEmoji string `json:"moodEmoji"`
    Message   string `json:"message"`
    Date      string `json:"date"` // informational; the server decides the day
}

// ListJournal: GET /journal, newest first.
func (h *LedgerHandler) ListJournal(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    limit, ok := parseLimit(c)
    if !ok {
        return badRequest(c, "limit must be a positive integer")
    }
    entries, err := h.Journal.List(c.Request().Context(), uid, limit)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]journalResp, 0, len(entries))
    for _, e := range entries {
        out = append(out, toJournal(e))
    }
    return c.JSON(http.StatusOK, out)
}

// AddJournal: POST /journal. Each accepted request creates a new entry.
func (h *LedgerHandler) AddJournal(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req addJournalReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    e, err := h.Journal.Append(c.Request().Context(), uid, req.MoodLabel, req.MoodEmoji, req.Message)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toJournal(e))
}

// Moods: GET /journal/moods lists the accepted moods.
func (h *LedgerHandler) Moods(c echo.Context) error {
    return c.JSON(http.StatusOK, model.Moods)
}
