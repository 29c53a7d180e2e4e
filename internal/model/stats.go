package model

import (
    "time"

    "github.com/iliyamo/soulspace-ledger/internal/daykey"
)

// DefaultDayCount is the day count of a user who has no recorded visit yet.
const DefaultDayCount = 1

// UserStats is the per-user engagement state from `user_stats`.
//
// DayCount never decreases and LastVisited never moves to an earlier day.
// Version is bumped on every write and is what compare-and-swap updates
// match against.
type UserStats struct {
    UserID      uint64     // user_stats.user_id
    DayCount    int        // user_stats.day_count
    LastVisited daykey.Key // user_stats.last_visited ("" when never visited)
    Version     int64      // user_stats.version
    UpdatedAt   time.Time  // user_stats.updated_at
}

// DefaultStats is the lazily created state for a user seen for the first time.
func DefaultStats(userID uint64) UserStats {
    return UserStats{UserID: userID, DayCount: DefaultDayCount}
}
