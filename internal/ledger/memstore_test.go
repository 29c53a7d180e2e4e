package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
	"github.com/iliyamo/soulspace-ledger/internal/repository"
)

// In-memory stores with the same uniqueness and CAS contracts as the
// MySQL repositories.

type memStats struct {
	mu        sync.Mutex
	rows      map[uint64]model.UserStats
	known     map[uint64]bool // nil means every user exists
	beforeCAS func()
	casCalls  int
	err       error
}

func newMemStats() *memStats { return &memStats{rows: map[uint64]model.UserStats{}} }

func (m *memStats) Get(_ context.Context, userID uint64) (model.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.UserStats{}, m.err
	}
	s, ok := m.rows[userID]
	if !ok {
		return model.UserStats{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memStats) CreateDefault(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.known != nil && !m.known[userID] {
		return repository.ErrUnknownUser
	}
	if _, ok := m.rows[userID]; !ok {
		m.rows[userID] = model.DefaultStats(userID)
	}
	return nil
}

func (m *memStats) CompareAndSwap(_ context.Context, next model.UserStats, expect int64) error {
	if hook := m.beforeCAS; hook != nil {
		m.beforeCAS = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	cur, ok := m.rows[next.UserID]
	if !ok || cur.Version != expect {
		return repository.ErrVersionConflict
	}
	next.Version = expect + 1
	m.rows[next.UserID] = next
	return nil
}

func (m *memStats) row(userID uint64) model.UserStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[userID]
}

type memQuotes struct {
	mu           sync.Mutex
	nextID       uint64
	rows         map[string]model.QuoteRecord
	known        map[uint64]bool
	beforeInsert func()
	inserts      int
}

func newMemQuotes() *memQuotes { return &memQuotes{rows: map[string]model.QuoteRecord{}} }

func quoteKey(userID uint64, day daykey.Key) string { return fmt.Sprintf("%d/%s", userID, day) }

func (m *memQuotes) GetByDay(ctx context.Context, userID uint64, day daykey.Key) (model.QuoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.QuoteRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[quoteKey(userID, day)]
	if !ok {
		return model.QuoteRecord{}, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memQuotes) Insert(ctx context.Context, rec *model.QuoteRecord) error {
	if hook := m.beforeInsert; hook != nil {
		m.beforeInsert = nil
		hook()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.known != nil && !m.known[rec.UserID] {
		return repository.ErrUnknownUser
	}
	k := quoteKey(rec.UserID, rec.DayKey)
	if _, ok := m.rows[k]; ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	rec.ID = m.nextID
	m.rows[k] = *rec
	return nil
}

func (m *memQuotes) ListByUser(_ context.Context, userID uint64, limit int) ([]model.QuoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.QuoteRecord{}
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayKey != out[j].DayKey {
			return out[i].DayKey.After(out[j].DayKey)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memQuotes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memJournal struct {
	mu      sync.Mutex
	entries []model.JournalEntry
	err     error
}

func (m *memJournal) Insert(_ context.Context, e *model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = uint64(len(m.entries) + 1)
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memJournal) ListByUser(_ context.Context, userID uint64, limit int) ([]model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.JournalEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUsers map[uint64]model.User

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// clock is a settable time source for daykey.Resolver.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newClock(t time.Time) (*clock, *daykey.Resolver) {
	c := &clock{now: t}
	return c, daykey.NewResolver(time.UTC).WithClock(c.Now)
}
