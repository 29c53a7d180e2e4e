package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/model"
)

// QuoteRepo provides access to quote_history. The table carries
// UNIQUE (user_id, day_key); that constraint, not application code, is what
// guarantees one quote per user per day under concurrent requests.
type QuoteRepo struct {
	db *sql.DB
}

func NewQuoteRepo(db *sql.DB) *QuoteRepo { return &QuoteRepo{db: db} }

const quoteColumns = `id, user_id, external_id, content, author, tags, day_key, created_at`

// GetByDay returns the user's record for day or ErrNotFound.
func (r *QuoteRepo) GetByDay(ctx context.Context, userID uint64, day daykey.Key) (model.QuoteRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quote_history WHERE user_id = ? AND day_key = ? LIMIT 1`,
		userID, day.String())
	rec, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QuoteRecord{}, ErrNotFound
	}
	if err != nil {
		return model.QuoteRecord{}, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Insert stores rec and fills in its ID. A second record for the same user
// and day fails with ErrDuplicate.
func (r *QuoteRepo) Insert(ctx context.Context, rec *model.QuoteRecord) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO quote_history (user_id, external_id, content, author, tags, day_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.ExternalID, rec.Content, rec.Author, string(tagsJSON), rec.DayKey.String(), rec.CreatedAt.UTC())
	if err != nil {
		switch c := classify(err); {
		case errors.Is(c, ErrDuplicate), errors.Is(c, ErrUnknownUser):
			return c
		}
		return fmt.Errorf("db error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = uint64(id)
	rec.Tags = tags
	return nil
}

// ListByUser returns the user's records, most recent day first. limit <= 0
// means all.
func (r *QuoteRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.QuoteRecord, error) {
	q := `SELECT ` + quoteColumns + ` FROM quote_history WHERE user_id = ? ORDER BY day_key DESC, id DESC`
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

	records := []model.QuoteRecord{}
	for rows.Next() {
		rec, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(s scanner) (model.QuoteRecord, error) {
	var (
		rec  model.QuoteRecord
		tags sql.NullString
		day  string
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &rec.ExternalID, &rec.Content, &rec.Author, &tags, &day, &rec.CreatedAt); err != nil {
		return model.QuoteRecord{}, err
	}
	rec.DayKey = daykey.Key(day)
	rec.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &rec.Tags); err != nil {
			return model.QuoteRecord{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return rec, nil
}
