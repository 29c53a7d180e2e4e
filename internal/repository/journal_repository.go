package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/model"
)

// JournalRepo provides access to journal_entries. The table is append-only:
// there is deliberately no update or delete method.
type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo { return &JournalRepo{db: db} }

// Insert stores e and fills in its ID.
func (r *JournalRepo) Insert(ctx context.Context, e *model.JournalEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_entries (user_id, mood_label, mood_glyph, message, day_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.MoodLabel, e.MoodGlyph, e.Message, e.DayKey.String(), e.CreatedAt.UTC())
	if err != nil {
		if errors.Is(classify(err), ErrUnknownUser) {
			return ErrUnknownUser
		}
		return fmt.Errorf("db error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = uint64(id)
	return nil
}

// ListByUser returns the user's entries newest first. limit <= 0 means all.
func (r *JournalRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.JournalEntry, error) {
	q := `SELECT id, user_id, mood_label, mood_glyph, message, day_key, created_at
	      FROM journal_entries
	      WHERE user_id = ?
	      ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		var (
			e   model.JournalEntry
			day string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.MoodLabel, &e.MoodGlyph, &e.Message, &day, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.DayKey = daykey.Key(day)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
