package model

import (
    "time"

    "github.com/iliyamo/soulspace-ledger/internal/daykey"
)

// Quote is the payload drawn from a quote source.
type Quote struct {
    ExternalID string
    Content    string
    Author     string
    Tags       []string
}

// QuoteRecord is a row of `quote_history`. At most one exists per
// (UserID, DayKey); rows are never updated.
type QuoteRecord struct {
    ID         uint64     // quote_history.id
    UserID     uint64     // quote_history.user_id
    ExternalID string     // quote_history.external_id (provider id, may be empty)
    Content    string     // quote_history.content
    Author     string     // quote_history.author
    Tags       []string   // quote_history.tags (JSON array)
    DayKey     daykey.Key // quote_history.day_key
    CreatedAt  time.Time  // quote_history.created_at
}
