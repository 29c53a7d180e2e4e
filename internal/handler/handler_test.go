package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/daykey"
    "github.com/iliyamo/soulspace-ledger/internal/ledger"
    "github.com/iliyamo/soulspace-ledger/internal/logging"
    "github.com/iliyamo/soulspace-ledger/internal/model"
)

var today = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func testDays() *daykey.Resolver {
    return daykey.NewResolver(time.UTC).WithClock(func() time.Time { return today })
}

// newCtx builds an echo context for a JSON request. uid 0 leaves the
// request unauthenticated.
func newCtx(method, target, body string, uid uint64) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, target, nil)
    } else {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if uid != 0 {
        c.Set("user_id", uid)
    }
    return c, rec
}

// ----- stubs -----

type stubStats struct {
    stats    model.UserStats
    err      error
    updated  []string
    visits   int
    profiles map[uint64]model.User
}

func (s *stubStats) Stats(context.Context, uint64) (model.UserStats, error) { return s.stats, s.err }

func (s *stubStats) Visit(context.Context, uint64) (model.UserStats, error) {
    s.visits++
    return s.stats, s.err
}

func (s *stubStats) Update(_ context.Context, _ uint64, dayCount int, last daykey.Key) (model.UserStats, error) {
    s.updated = append(s.updated, fmt.Sprintf("%d/%s", dayCount, last))
    if s.err != nil {
        return model.UserStats{}, s.err
    }
    if dayCount < s.stats.DayCount {
        return model.UserStats{}, fmt.Errorf("%w: lower", ledger.ErrInvalidStats)
    }
    s.stats.DayCount = dayCount
    if !last.IsZero() {
        s.stats.LastVisited = last
    }
    return s.stats, nil
}

func (s *stubStats) Profile(_ context.Context, id uint64) (ledger.Profile, error) {
    u, ok := s.profiles[id]
    if !ok {
        return ledger.Profile{}, ledger.ErrUnauthorizedUser
    }
    return ledger.Profile{User: u, Stats: s.stats}, nil
}

type stubJournal struct {
    entries []model.JournalEntry
    limit   int
}

func (s *stubJournal) Append(_ context.Context, uid uint64, label, glyph, msg string) (model.JournalEntry, error) {
    if strings.TrimSpace(msg) == "" {
        return model.JournalEntry{}, fmt.Errorf("%w: message is required", ledger.ErrInvalidEntry)
    }
    e := model.JournalEntry{ID: uint64(len(s.entries) + 1), UserID: uid, MoodLabel: label, MoodGlyph: glyph, Message: msg, DayKey: "2026-10-16", CreatedAt: today}
    s.entries = append([]model.JournalEntry{e}, s.entries...)
    return e, nil
}

func (s *stubJournal) List(_ context.Context, _ uint64, limit int) ([]model.JournalEntry, error) {
    s.limit = limit
    return s.entries, nil
}

type stubQuotes struct {
    existing *model.QuoteRecord
    drawn    []model.Quote
    err      error
}

func (s *stubQuotes) History(context.Context, uint64, int) ([]model.QuoteRecord, error) {
    if s.err != nil {
        return nil, s.err
    }
    if s.existing == nil {
        return []model.QuoteRecord{}, nil
    }
    return []model.QuoteRecord{*s.existing}, nil
}

func (s *stubQuotes) GetOrCreateToday(ctx context.Context, uid uint64, supply ledger.Supplier) (model.QuoteRecord, error) {
    if s.err != nil {
        return model.QuoteRecord{}, s.err
    }
    if s.existing != nil {
        return *s.existing, nil
    }
    q := ledger.FallbackQuote()
    if supply != nil {
        if got, err := supply(ctx); err == nil {
            q = got
        }
    }
    s.drawn = append(s.drawn, q)
    s.existing = &model.QuoteRecord{ID: 1, UserID: uid, ExternalID: q.ExternalID, Content: q.Content, Author: q.Author, Tags: q.Tags, DayKey: "2026-10-16", CreatedAt: today}
    return *s.existing, nil
}

func newLedgerHandler() (*LedgerHandler, *stubStats, *stubJournal, *stubQuotes) {
    st := &stubStats{stats: model.UserStats{UserID: 7, DayCount: 1}, profiles: map[uint64]model.User{7: {ID: 7, Email: "ana@example.com"}}}
    j := &stubJournal{}
    q := &stubQuotes{}
    provider := func(context.Context) (model.Quote, error) {
        return model.Quote{ExternalID: "srv", Content: "From the provider", Author: "P"}, nil
    }
    return NewLedgerHandler(st, j, q, provider, testDays(), logging.Nop()), st, j, q
}

var errBoom = errors.New("boom")
