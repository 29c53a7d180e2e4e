package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/model"
)

// StatsRepo provides data access to the user_stats table. Rows are only
// ever changed through CompareAndSwap so concurrent writers cannot lose an
// update or move a counter backwards.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Get returns the stats row for userID or ErrNotFound.
func (r *StatsRepo) Get(ctx context.Context, userID uint64) (model.UserStats, error) {
	const q = `SELECT user_id, day_count, last_visited, version, updated_at
	           FROM user_stats WHERE user_id = ? LIMIT 1`
	var (
		s    model.UserStats
		last sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&s.UserID, &s.DayCount, &last, &s.Version, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserStats{}, ErrNotFound
	}
	if err != nil {
		return model.UserStats{}, fmt.Errorf("db error: %w", err)
	}
	if last.Valid {
		s.LastVisited = daykey.Key(last.String)
	}
	return s, nil
}

// CreateDefault inserts the default row (day_count 1, never visited) unless
// one already exists. It returns ErrUnknownUser when the user row is missing.
func (r *StatsRepo) CreateDefault(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, day_count, last_visited, version)
		 VALUES (?, ?, NULL, 0)
		 ON DUPLICATE KEY UPDATE user_id = user_id`,
		userID, model.DefaultDayCount)
	if err != nil {
		if errors.Is(classify(err), ErrUnknownUser) {
			return ErrUnknownUser
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CompareAndSwap writes next only if the stored version still equals
// expectVersion, bumping the version by one. It returns ErrVersionConflict
// when another writer got there first.
func (r *StatsRepo) CompareAndSwap(ctx context.Context, next model.UserStats, expectVersion int64) error {
	var last sql.NullString
	if !next.LastVisited.IsZero() {
		last = sql.NullString{String: next.LastVisited.String(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_stats
		 SET day_count = ?, last_visited = ?, version = version + 1, updated_at = UTC_TIMESTAMP(6)
		 WHERE user_id = ? AND version = ?`,
		next.DayCount, last, next.UserID, expectVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
