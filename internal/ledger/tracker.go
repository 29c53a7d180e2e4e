package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
	"github.com/iliyamo/soulspace-ledger/internal/repository"
)

// Tracker maintains dayCount and lastVisited. Both only move forward: a
// visit on a new day adds one, a visit on an already counted day changes
// nothing, and overwrites that would go backwards are rejected.
type Tracker struct {
	stats  StatsStore
	days   *daykey.Resolver
	events EventPublisher
	log    logging.Logger
}

func NewTracker(stats StatsStore, days *daykey.Resolver, events EventPublisher, log logging.Logger) *Tracker {
	return &Tracker{stats: stats, days: days, events: orNop(events), log: log}
}

// ReadStats returns the user's stats, creating the default row on first use.
func (t *Tracker) ReadStats(ctx context.Context, userID uint64) (model.UserStats, error) {
	s, err := t.stats.Get(ctx, userID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.UserStats{}, storeErr("read stats", err)
	}
	if err := t.stats.CreateDefault(ctx, userID); err != nil {
		return model.UserStats{}, storeErr("create stats", err)
	}
	s, err = t.stats.Get(ctx, userID)
	if err != nil {
		return model.UserStats{}, storeErr("read stats", err)
	}
	return s, nil
}

// RecordVisit counts now's day once. Calling it again on the same day, or
// with an instant earlier than the last counted day, returns the stored
// stats untouched.
func (t *Tracker) RecordVisit(ctx context.Context, userID uint64, now time.Time) (model.UserStats, error) {
	today := t.days.Of(now)
	next, changed, err := t.update(ctx, userID, func(cur model.UserStats) (model.UserStats, bool, error) {
		if !cur.LastVisited.Before(today) {
			return cur, false, nil
		}
		cur.DayCount++
		cur.LastVisited = today
		return cur, true, nil
	})
	if err != nil {
		return model.UserStats{}, err
	}
	if changed {
		t.log.Debug(ctx, "visit recorded", "user_id", userID, "day", today, "day_count", next.DayCount)
		ev := queue.NewEvent(queue.TypeVisitRecorded, userID, today.String(), now)
		ev.DayCount = next.DayCount
		emit(ctx, t.events, t.log, ev)
	}
	return next, nil
}

// MaxClientSkew is how far ahead of the server a client clock may run.
// A lastVisited that is tomorrow only within this window is taken as today.
const MaxClientSkew = 5 * time.Minute

// SetStats overwrites the stats with client-supplied values. A dayCount
// below 1 or below the stored one, a lastVisited earlier than the stored
// one and a lastVisited after today are rejected with ErrInvalidStats and
// nothing is written. A zero lastVisited keeps the stored day.
func (t *Tracker) SetStats(ctx context.Context, userID uint64, dayCount int, lastVisited daykey.Key) (model.UserStats, error) {
	if dayCount < model.DefaultDayCount {
		return model.UserStats{}, fmt.Errorf("%w: dayCount must be at least %d", ErrInvalidStats, model.DefaultDayCount)
	}
	now := t.days.Now()
	if today := t.days.Of(now); lastVisited.After(today) {
		if lastVisited != t.days.Of(now.Add(MaxClientSkew)) {
			return model.UserStats{}, fmt.Errorf("%w: lastVisited %s is after today %s", ErrInvalidStats, lastVisited, today)
		}
		lastVisited = today
	}
	next, _, err := t.update(ctx, userID, func(cur model.UserStats) (model.UserStats, bool, error) {
		if dayCount < cur.DayCount {
			return cur, false, fmt.Errorf("%w: dayCount %d is below stored %d", ErrInvalidStats, dayCount, cur.DayCount)
		}
		day := lastVisited
		if day.IsZero() {
			day = cur.LastVisited
		}
		if day.Before(cur.LastVisited) {
			return cur, false, fmt.Errorf("%w: lastVisited %s is before stored %s", ErrInvalidStats, day, cur.LastVisited)
		}
		if dayCount == cur.DayCount && day == cur.LastVisited {
			return cur, false, nil
		}
		cur.DayCount = dayCount
		cur.LastVisited = day
		return cur, true, nil
	})
	return next, err
}

// update runs a read-modify-CAS cycle, retrying once when another writer
// bumps the version in between.
func (t *Tracker) update(ctx context.Context, userID uint64, apply func(model.UserStats) (model.UserStats, bool, error)) (model.UserStats, bool, error) {
	const attempts = 2
	for i := 0; i < attempts; i++ {
		cur, err := t.ReadStats(ctx, userID)
		if err != nil {
			return model.UserStats{}, false, err
		}
		next, changed, err := apply(cur)
		if err != nil {
			return model.UserStats{}, false, err
		}
		if !changed {
			return cur, false, nil
		}
		err = t.stats.CompareAndSwap(ctx, next, cur.Version)
		if err == nil {
			next.Version = cur.Version + 1
			return next, true, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return model.UserStats{}, false, storeErr("write stats", err)
		}
		t.log.Debug(ctx, "stats version conflict", "user_id", userID, "attempt", i+1)
	}
	return model.UserStats{}, false, fmt.Errorf("write stats: %w: %w", ErrStorage, repository.ErrVersionConflict)
}
