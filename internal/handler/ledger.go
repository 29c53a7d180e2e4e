package handler

import (
    "context"

    "github.com/iliyamo/soulspace-ledger/internal/daykey"
    "github.com/iliyamo/soulspace-ledger/internal/ledger"
    "github.com/iliyamo/soulspace-ledger/internal/logging"
    "github.com/iliyamo/soulspace-ledger/internal/model"
)

// StatsService is implemented by *ledger.Aggregate.
type StatsService interface {
    Stats(ctx context.Context, userID uint64) (model.UserStats, error)
    Visit(ctx context.Context, userID uint64) (model.UserStats, error)
    Update(ctx context.Context, userID uint64, dayCount int, lastVisited daykey.Key) (model.UserStats, error)
    Profile(ctx context.Context, userID uint64) (ledger.Profile, error)
}

// JournalService is implemented by *ledger.Journal.
type JournalService interface {
    Append(ctx context.Context, userID uint64, moodLabel, moodGlyph, message string) (model.JournalEntry, error)
    List(ctx context.Context, userID uint64, limit int) ([]model.JournalEntry, error)
}

// QuoteService is implemented by *ledger.QuoteLedger.
type QuoteService interface {
    History(ctx context.Context, userID uint64, limit int) ([]model.QuoteRecord, error)
    GetOrCreateToday(ctx context.Context, userID uint64, supply ledger.Supplier) (model.QuoteRecord, error)
}

// LedgerHandler serves the authenticated stats, journal and quote routes.
// Every route runs behind middleware.RequireUser.
type LedgerHandler struct {
    Stats    StatsService
    Journal  JournalService
    Quotes   QuoteService
    Provider ledger.Supplier // server-side quote source; nil means fallback only
    Days     *daykey.Resolver
    Log      logging.Logger
}

func NewLedgerHandler(stats StatsService, journal JournalService, quotes QuoteService, provider ledger.Supplier, days *daykey.Resolver, log logging.Logger) *LedgerHandler {
    return &LedgerHandler{Stats: stats, Journal: journal, Quotes: quotes, Provider: provider, Days: days, Log: log}
}
