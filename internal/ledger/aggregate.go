package ledger

import (
	"context"
	"errors"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/repository"
)

// Profile is a user together with their stats.
type Profile struct {
	User  model.User
	Stats model.UserStats
}

// Aggregate is the single entry point for reading and writing a user's
// stats, used by both the stats endpoints and profile queries.
type Aggregate struct {
	tracker *Tracker
	users   UserReader
	days    *daykey.Resolver
}

func NewAggregate(tracker *Tracker, users UserReader, days *daykey.Resolver) *Aggregate {
	return &Aggregate{tracker: tracker, users: users, days: days}
}

// Stats reads (and lazily creates) the user's stats.
func (a *Aggregate) Stats(ctx context.Context, userID uint64) (model.UserStats, error) {
	return a.tracker.ReadStats(ctx, userID)
}

// Visit records a visit at the resolver's current time.
func (a *Aggregate) Visit(ctx context.Context, userID uint64) (model.UserStats, error) {
	return a.tracker.RecordVisit(ctx, userID, a.days.Now())
}

// Update applies a guarded stats overwrite.
func (a *Aggregate) Update(ctx context.Context, userID uint64, dayCount int, lastVisited daykey.Key) (model.UserStats, error) {
	return a.tracker.SetStats(ctx, userID, dayCount, lastVisited)
}

// Profile loads the user row and their stats.
func (a *Aggregate) Profile(ctx context.Context, userID uint64) (Profile, error) {
	u, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Profile{}, ErrUnauthorizedUser
	}
	if err != nil {
		return Profile{}, storeErr("read user", err)
	}
	s, err := a.tracker.ReadStats(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: u, Stats: s}, nil
}
