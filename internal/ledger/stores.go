// Package ledger implements the per-user engagement ledger: the day-count
// tracker, the once-a-day quote ledger and the append-only journal.
//
// Persistence is reached through the small interfaces below. The MySQL
// repositories implement them; tests use in-memory versions honouring the
// same uniqueness and compare-and-swap contracts. Stores report outcomes
// with the sentinels of package repository.
package ledger

import (
	"context"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
)

// StatsStore persists one stats row per user.
type StatsStore interface {
	// Get returns repository.ErrNotFound when the row does not exist.
	Get(ctx context.Context, userID uint64) (model.UserStats, error)
	// CreateDefault inserts model.DefaultStats unless a row exists.
	CreateDefault(ctx context.Context, userID uint64) error
	// CompareAndSwap writes next when the stored version equals
	// expectVersion and returns repository.ErrVersionConflict otherwise.
	CompareAndSwap(ctx context.Context, next model.UserStats, expectVersion int64) error
}

// QuoteStore persists quote records with at most one per (user, day).
type QuoteStore interface {
	GetByDay(ctx context.Context, userID uint64, day daykey.Key) (model.QuoteRecord, error)
	// Insert returns repository.ErrDuplicate when a record for the same
	// user and day already exists.
	Insert(ctx context.Context, rec *model.QuoteRecord) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.QuoteRecord, error)
}

// JournalStore is append-only.
type JournalStore interface {
	Insert(ctx context.Context, e *model.JournalEntry) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.JournalEntry, error)
}

// UserReader resolves user rows for profile queries.
type UserReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TodayCache is an optional read-through cache of the current day's quote.
// Misses and cache errors are indistinguishable to the ledger.
type TodayCache interface {
	Get(ctx context.Context, userID uint64, day daykey.Key) (model.QuoteRecord, bool)
	Set(ctx context.Context, rec model.QuoteRecord)
}

// EventPublisher receives events after a write has committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}
