package model

import (
    "time"

    "github.com/iliyamo/soulspace-ledger/internal/daykey"
)

// JournalEntry is one immutable row of `journal_entries`.
type JournalEntry struct {
    ID        uint64     // journal_entries.id
    UserID    uint64     // journal_entries.user_id
    MoodLabel string     // journal_entries.mood_label (one of Moods)
    MoodGlyph string     // journal_entries.mood_glyph
    Message   string     // journal_entries.message, trimmed and non-empty
    DayKey    daykey.Key // journal_entries.day_key
    CreatedAt time.Time  // journal_entries.created_at
}
