// Package queue defines the engagement events exchanged over the message
// broker, the publisher used by the ledger and the activity-log consumer.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// QueueName is the durable queue all engagement events are routed to.
const QueueName = "engagement.events"

// Event types.
const (
    TypeVisitRecorded   = "visit.recorded"
    TypeQuoteDrawn      = "quote.drawn"
    TypeJournalAppended = "journal.appended"
)

// Event is published after a ledger write commits. It carries enough for a
// downstream consumer to log or aggregate without querying the database.
type Event struct {
    ID         string    `json:"id"`
    Type       string    `json:"type"`
    UserID     uint64    `json:"user_id"`
    DayKey     string    `json:"day_key"`
    DayCount   int       `json:"day_count,omitempty"`
    Mood       string    `json:"mood,omitempty"`
    QuoteID    uint64    `json:"quote_id,omitempty"`
    Author     string    `json:"author,omitempty"`
    Fallback   bool      `json:"fallback,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and time on an event of the given type.
func NewEvent(typ string, userID uint64, dayKey string, at time.Time) Event {
    return Event{
        ID:         uuid.NewString(),
        Type:       typ,
        UserID:     userID,
        DayKey:     dayKey,
        OccurredAt: at.UTC(),
    }
}
