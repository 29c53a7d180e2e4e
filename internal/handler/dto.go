package handler

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/ledger"
    "github.com/iliyamo/soulspace-ledger/internal/model"
)

// ----- response shapes -----

type statsResp struct {
    DayCount    int     `json:"dayCount"`
    LastVisited *string `json:"lastVisited"` // null until the first visit
}

type profileResp struct {
    ID        uint64    `json:"id"`
    Email     string    `json:"email"`
    CreatedAt time.Time `json:"createdAt"`
    Stats     statsResp `json:"stats"`
}

type journalResp struct {
    ID        uint64    `json:"id"`
    MoodLabel string    `json:"moodLabel"`
    MoodEmoji string    `json:"moodEmoji"`
    Message   string    `json:"message"`
    Date      string    `json:"date"`
    CreatedAt time.Time `json:"createdAt"`
}

type quoteResp struct {
    ID        uint64    `json:"id"`
    QuoteID   string    `json:"quoteId,omitempty"`
    Content   string    `json:"content"`
    Author    string    `json:"author"`
    Tags      []string  `json:"tags"`
    Date      string    `json:"date"`
    CreatedAt time.Time `json:"createdAt"`
}

func toStats(s model.UserStats) statsResp {
    out := statsResp{DayCount: s.DayCount}
    if !s.LastVisited.IsZero() {
        day := s.LastVisited.String()
        out.LastVisited = &day
    }
    return out
}

func toProfile(p ledger.Profile) profileResp {
    return profileResp{ID: p.User.ID, Email: p.User.Email, CreatedAt: p.User.CreatedAt, Stats: toStats(p.Stats)}
}

func toJournal(e model.JournalEntry) journalResp {
    return journalResp{
        ID:        e.ID,
        MoodLabel: e.MoodLabel,
        MoodEmoji: e.MoodGlyph,
        Message:   e.Message,
        Date:      e.DayKey.String(),
        CreatedAt: e.CreatedAt,
    }
}

func toQuote(r model.QuoteRecord) quoteResp {
    tags := r.Tags
    if tags == nil {
        tags = []string{}
    }
    return quoteResp{
        ID:        r.ID,
        QuoteID:   r.ExternalID,
        Content:   r.Content,
        Author:    r.Author,
        Tags:      tags,
        Date:      r.DayKey.String(),
        CreatedAt: r.CreatedAt,
    }
}

// maxListLimit caps ?limit= on list endpoints.
const maxListLimit = 365

// parseLimit reads ?limit=. Absent means no limit; values above
// maxListLimit are clamped.
func parseLimit(c echo.Context) (int, bool) {
    raw := c.QueryParam("limit")
    if raw == "" {
        return 0, true
    }
    n, err := strconv.Atoi(raw)
    if err != nil || n < 1 {
        return 0, false
    }
    if n > maxListLimit {
        n = maxListLimit
    }
    return n, true
}
