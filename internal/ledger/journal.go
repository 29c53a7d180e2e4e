package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
)

// MaxMessageRunes caps a journal message.
const MaxMessageRunes = 5000

// Journal is the append-only mood journal.
type Journal struct {
	store  JournalStore
	days   *daykey.Resolver
	events EventPublisher
	log    logging.Logger
}

func NewJournal(store JournalStore, days *daykey.Resolver, events EventPublisher, log logging.Logger) *Journal {
	return &Journal{store: store, days: days, events: orNop(events), log: log}
}

// Append validates and stores a new entry stamped with the current time
// and day. The mood must be one of model.Moods; its glyph is always taken
// from the set, so moodGlyph only has to be blank or match. Every call
// that passes validation creates a new entry.
func (j *Journal) Append(ctx context.Context, userID uint64, moodLabel, moodGlyph, message string) (model.JournalEntry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.JournalEntry{}, fmt.Errorf("%w: message is required", ErrInvalidEntry)
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageRunes {
		return model.JournalEntry{}, fmt.Errorf("%w: message has %d characters, limit %d", ErrInvalidEntry, n, MaxMessageRunes)
	}
	mood, ok := model.LookupMood(moodLabel)
	if !ok {
		return model.JournalEntry{}, fmt.Errorf("%w: unknown mood %q", ErrInvalidEntry, moodLabel)
	}
	if g := strings.TrimSpace(moodGlyph); g != "" && g != mood.Glyph {
		return model.JournalEntry{}, fmt.Errorf("%w: emoji %q does not match mood %s", ErrInvalidEntry, g, mood.Label)
	}

	now := j.days.Now()
	e := model.JournalEntry{
		UserID:    userID,
		MoodLabel: mood.Label,
		MoodGlyph: mood.Glyph,
		Message:   message,
		DayKey:    j.days.Of(now),
		CreatedAt: now.UTC(),
	}
	if err := j.store.Insert(ctx, &e); err != nil {
		return model.JournalEntry{}, storeErr("append journal entry", err)
	}

	ev := queue.NewEvent(queue.TypeJournalAppended, userID, e.DayKey.String(), now)
	ev.Mood = e.MoodLabel
	emit(ctx, j.events, j.log, ev)
	return e, nil
}

// List returns the user's entries newest first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, userID uint64, limit int) ([]model.JournalEntry, error) {
	entries, err := j.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("list journal", err)
	}
	return entries, nil
}
