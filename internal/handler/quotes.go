package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/ledger"
    "github.com/iliyamo/soulspace-ledger/internal/middleware"
    "github.com/iliyamo/soulspace-ledger/internal/model"
)

type recordQuoteReq struct {
    QuoteID string   `json:"quoteId"`
    Content string   `json:"content"`
    Author  string   `json:"author"`
    Tags    []string `json:"tags"`
    Date    string   `json:"date"` // informational; the server decides the day
}

// QuoteHistory: GET /quotes/history, most recent day first.
func (h *LedgerHandler) QuoteHistory(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    limit, ok := parseLimit(c)
    if !ok {
        return badRequest(c, "limit must be a positive integer")
    }
    recs, err := h.Quotes.History(c.Request().Context(), uid, limit)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]quoteResp, 0, len(recs))
    for _, r := range recs {
        out = append(out, toQuote(r))
    }
    return c.JSON(http.StatusOK, out)
}

// RecordQuote: POST /quotes/history. A body with content offers that quote
// for today; an empty body lets the server draw one. Either way the
// response is today's canonical record, which is the earlier one when today
// already has a quote.
func (h *LedgerHandler) RecordQuote(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req recordQuoteReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }

    supply := h.Provider
    if strings.TrimSpace(req.Content) != "" {
        q, err := ledger.NormalizeQuote(model.Quote{
            ExternalID: req.QuoteID,
            Content:    req.Content,
            Author:     req.Author,
            Tags:       req.Tags,
        })
        if err != nil {
            return writeError(c, h.Log, err)
        }
        supply = ledger.StaticSupplier(q)
    }

    rec, err := h.Quotes.GetOrCreateToday(c.Request().Context(), uid, supply)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toQuote(rec))
}

// TodayQuote: GET /quotes/today returns today's record, drawing it from the
// server's provider when the user has none yet.
func (h *LedgerHandler) TodayQuote(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    rec, err := h.Quotes.GetOrCreateToday(c.Request().Context(), uid, h.Provider)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toQuote(rec))
}
