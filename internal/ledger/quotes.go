package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
	"github.com/iliyamo/soulspace-ledger/internal/repository"
)

// Supplier produces a candidate quote. It may fail, return junk or hang;
// the ledger bounds it with a timeout and falls back in every such case.
type Supplier func(ctx context.Context) (model.Quote, error)

// StaticSupplier always offers q.
func StaticSupplier(q model.Quote) Supplier {
	return func(context.Context) (model.Quote, error) { return q, nil }
}

// DefaultSupplierTimeout bounds a single draw.
const DefaultSupplierTimeout = 3 * time.Second

// createGrace is the time left for storage once the draw is done.
const createGrace = 10 * time.Second

// QuoteLedger hands out exactly one quote per user per day and keeps the
// history of them.
type QuoteLedger struct {
	store   QuoteStore
	days    *daykey.Resolver
	log     logging.Logger
	cache   TodayCache
	events  EventPublisher
	timeout time.Duration

	inflight singleflight.Group
}

type QuoteOption func(*QuoteLedger)

// WithTodayCache puts c in front of the store for today's record.
func WithTodayCache(c TodayCache) QuoteOption {
	return func(q *QuoteLedger) { q.cache = c }
}

// WithQuoteEvents publishes quote.drawn events to p.
func WithQuoteEvents(p EventPublisher) QuoteOption {
	return func(q *QuoteLedger) { q.events = orNop(p) }
}

// WithSupplierTimeout overrides DefaultSupplierTimeout.
func WithSupplierTimeout(d time.Duration) QuoteOption {
	return func(q *QuoteLedger) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQuoteLedger(store QuoteStore, days *daykey.Resolver, log logging.Logger, opts ...QuoteOption) *QuoteLedger {
	q := &QuoteLedger{
		store:   store,
		days:    days,
		log:     log,
		events:  nopPublisher{},
		timeout: DefaultSupplierTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// History lists the user's records, most recent day first.
func (q *QuoteLedger) History(ctx context.Context, userID uint64, limit int) ([]model.QuoteRecord, error) {
	recs, err := q.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("quote history", err)
	}
	return recs, nil
}

// GetOrCreateToday returns the user's record for today. When one exists it
// is returned as stored and supply is not called. Otherwise supply is drawn
// once, replaced by FallbackQuote on failure, and the result is persisted.
// Concurrent callers for the same user and day all get the same record.
func (q *QuoteLedger) GetOrCreateToday(ctx context.Context, userID uint64, supply Supplier) (model.QuoteRecord, error) {
	today := q.days.Today()
	if rec, ok := q.lookup(ctx, userID, today); ok {
		return rec, nil
	}
	rec, err := q.store.GetByDay(ctx, userID, today)
	if err == nil {
		q.remember(ctx, rec)
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.QuoteRecord{}, storeErr("read today's quote", err)
	}

	// The draw is shared by every caller waiting on this user and day, so it
	// runs detached from any one caller's cancellation; each caller still
	// stops waiting when its own ctx ends.
	key := fmt.Sprintf("%d:%s", userID, today)
	flight := q.inflight.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout+createGrace)
		defer cancel()
		return q.create(cctx, userID, today, supply)
	})
	select {
	case res := <-flight:
		if res.Err != nil {
			return model.QuoteRecord{}, res.Err
		}
		return res.Val.(model.QuoteRecord), nil
	case <-ctx.Done():
		return model.QuoteRecord{}, ctx.Err()
	}
}

// create draws and inserts. Losing the insert race to another process is
// not an error: the winner's record is read back and returned instead.
func (q *QuoteLedger) create(ctx context.Context, userID uint64, day daykey.Key, supply Supplier) (model.QuoteRecord, error) {
	quote := q.draw(ctx, supply)
	rec := model.QuoteRecord{
		UserID:     userID,
		ExternalID: quote.ExternalID,
		Content:    quote.Content,
		Author:     quote.Author,
		Tags:       quote.Tags,
		DayKey:     day,
		CreatedAt:  q.days.Now().UTC(),
	}
	err := q.store.Insert(ctx, &rec)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, err := q.store.GetByDay(ctx, userID, day)
		if err != nil {
			return model.QuoteRecord{}, storeErr("re-read today's quote", err)
		}
		q.remember(ctx, existing)
		return existing, nil
	}
	if err != nil {
		return model.QuoteRecord{}, storeErr("insert quote", err)
	}

	q.remember(ctx, rec)
	ev := queue.NewEvent(queue.TypeQuoteDrawn, userID, day.String(), rec.CreatedAt)
	ev.QuoteID = rec.ID
	ev.Author = rec.Author
	ev.Fallback = rec.ExternalID == FallbackExternalID
	emit(ctx, q.events, q.log, ev)
	return rec, nil
}

// draw calls supply under the ledger's timeout. The supplier runs in its
// own goroutine so one that ignores its context still cannot stall us.
func (q *QuoteLedger) draw(ctx context.Context, supply Supplier) model.Quote {
	if supply == nil {
		return FallbackQuote()
	}
	dctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	type result struct {
		quote model.Quote
		err   error
	}
	done := make(chan result, 1)
	go func() {
		quote, err := supply(dctx)
		done <- result{quote, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			q.log.Warn(ctx, "quote supplier failed, using fallback", "err", r.err)
			return FallbackQuote()
		}
		quote, err := NormalizeQuote(r.quote)
		if err != nil {
			q.log.Warn(ctx, "quote supplier returned unusable quote, using fallback", "err", err)
			return FallbackQuote()
		}
		return quote
	case <-dctx.Done():
		q.log.Warn(ctx, "quote supplier timed out, using fallback", "timeout", q.timeout, "err", dctx.Err())
		return FallbackQuote()
	}
}

func (q *QuoteLedger) lookup(ctx context.Context, userID uint64, day daykey.Key) (model.QuoteRecord, bool) {
	if q.cache == nil {
		return model.QuoteRecord{}, false
	}
	return q.cache.Get(ctx, userID, day)
}

func (q *QuoteLedger) remember(ctx context.Context, rec model.QuoteRecord) {
	if q.cache != nil {
		q.cache.Set(ctx, rec)
	}
}
