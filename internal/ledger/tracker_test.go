package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/model"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
)

var dayA = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

func newTracker(t *testing.T) (*Tracker, *memStats, *recordingPublisher, *clock) {
	t.Helper()
	stats := newMemStats()
	pub := &recordingPublisher{}
	c, days := newClock(dayA)
	return NewTracker(stats, days, pub, logging.Nop()), stats, pub, c
}

func TestReadStats_CreatesDefaultOnce(t *testing.T) {
	tr, stats, _, _ := newTracker(t)
	ctx := context.Background()

	s, err := tr.ReadStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDayCount, s.DayCount)
	assert.True(t, s.LastVisited.IsZero())

	again, err := tr.ReadStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, s, again)
	assert.Len(t, stats.rows, 1)
}

func TestReadStats_UnknownUser(t *testing.T) {
	tr, stats, _, _ := newTracker(t)
	stats.known = map[uint64]bool{1: true}

	_, err := tr.ReadStats(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUnauthorizedUser)
}

func TestReadStats_StorageFailure(t *testing.T) {
	tr, stats, _, _ := newTracker(t)
	stats.err = errors.New("connection refused")

	_, err := tr.ReadStats(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestRecordVisit_SameDayIsNoop(t *testing.T) {
	tr, stats, pub, _ := newTracker(t)
	ctx := context.Background()

	first, err := tr.RecordVisit(ctx, 1, dayA)
	require.NoError(t, err)
	assert.Equal(t, 2, first.DayCount)
	assert.Equal(t, daykey.Key("2026-10-16"), first.LastVisited)

	second, err := tr.RecordVisit(ctx, 1, dayA.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, stats.row(1))
	assert.Equal(t, []string{queue.TypeVisitRecorded}, pub.types())
}

func TestRecordVisit_AABScenario(t *testing.T) {
	tr, _, _, _ := newTracker(t)
	ctx := context.Background()
	dayB := dayA.Add(24 * time.Hour)

	_, err := tr.RecordVisit(ctx, 1, dayA)
	require.NoError(t, err)
	_, err = tr.RecordVisit(ctx, 1, dayA.Add(time.Hour))
	require.NoError(t, err)
	s, err := tr.RecordVisit(ctx, 1, dayB)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultDayCount+2, s.DayCount)
	assert.Equal(t, daykey.Key("2026-10-17"), s.LastVisited)
}

func TestRecordVisit_EarlierInstantDoesNotRewind(t *testing.T) {
	tr, _, _, _ := newTracker(t)
	ctx := context.Background()

	s, err := tr.RecordVisit(ctx, 1, dayA.Add(48*time.Hour))
	require.NoError(t, err)
	back, err := tr.RecordVisit(ctx, 1, dayA)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestRecordVisit_MidnightInZone(t *testing.T) {
	stats := newMemStats()
	cest := time.FixedZone("CEST", 2*60*60)
	tr := NewTracker(stats, daykey.NewResolver(cest), nil, logging.Nop())
	ctx := context.Background()

	// 21:59 and 22:01 UTC fall on different days at UTC+2.
	_, err := tr.RecordVisit(ctx, 1, time.Date(2026, 10, 16, 21, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	s, err := tr.RecordVisit(ctx, 1, time.Date(2026, 10, 16, 22, 1, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, s.DayCount)
	assert.Equal(t, daykey.Key("2026-10-17"), s.LastVisited)
}

func TestRecordVisit_RetriesOnceOnConflict(t *testing.T) {
	tr, stats, _, _ := newTracker(t)
	ctx := context.Background()
	_, err := tr.ReadStats(ctx, 1)
	require.NoError(t, err)

	// Another writer records the same day between our read and our CAS.
	stats.beforeCAS = func() {
		stats.mu.Lock()
		stats.rows[1] = model.UserStats{UserID: 1, DayCount: 2, LastVisited: "2026-10-16", Version: 1}
		stats.mu.Unlock()
	}
	s, err := tr.RecordVisit(ctx, 1, dayA)
	require.NoError(t, err)
	assert.Equal(t, 2, s.DayCount, "retry must see the concurrent visit and not count the day twice")
	assert.Equal(t, 1, stats.casCalls)
}

func TestRecordVisit_SecondConflictIsStorageFailure(t *testing.T) {
	tr, stats, _, _ := newTracker(t)
	ctx := context.Background()
	_, err := tr.ReadStats(ctx, 1)
	require.NoError(t, err)

	bump := func() {
		stats.mu.Lock()
		s := stats.rows[1]
		s.Version++
		stats.rows[1] = s
		stats.mu.Unlock()
	}
	stats.beforeCAS = func() {
		bump()
		stats.beforeCAS = bump
	}

	_, err = tr.RecordVisit(ctx, 1, dayA)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, 2, stats.casCalls)
	assert.Equal(t, 1, stats.row(1).DayCount)
}

func TestSetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts forward move", func(t *testing.T) {
		tr, stats, _, _ := newTracker(t)
		s, err := tr.SetStats(ctx, 1, 5, "2026-10-15")
		require.NoError(t, err)
		assert.Equal(t, 5, s.DayCount)
		assert.Equal(t, daykey.Key("2026-10-15"), s.LastVisited)
		assert.Equal(t, s, stats.row(1))
	})

	t.Run("zero lastVisited keeps stored day", func(t *testing.T) {
		tr, _, _, _ := newTracker(t)
		_, err := tr.RecordVisit(ctx, 1, dayA)
		require.NoError(t, err)
		s, err := tr.SetStats(ctx, 1, 9, "")
		require.NoError(t, err)
		assert.Equal(t, daykey.Key("2026-10-16"), s.LastVisited)
		assert.Equal(t, 9, s.DayCount)
	})

	t.Run("identical values write nothing", func(t *testing.T) {
		tr, stats, _, _ := newTracker(t)
		_, err := tr.SetStats(ctx, 1, 4, "2026-10-10")
		require.NoError(t, err)
		before := stats.casCalls
		_, err = tr.SetStats(ctx, 1, 4, "2026-10-10")
		require.NoError(t, err)
		assert.Equal(t, before, stats.casCalls)
	})

	rejected := []struct {
		name     string
		dayCount int
		last     daykey.Key
	}{
		{"lower day count", 3, "2026-10-16"},
		{"earlier last visited", 7, "2026-10-01"},
		{"below one", 0, ""},
		{"future day", 8, "2026-10-17"},
	}
	for _, tc := range rejected {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			tr, stats, _, _ := newTracker(t)
			_, err := tr.SetStats(ctx, 1, 7, "2026-10-12")
			require.NoError(t, err)
			before := stats.row(1)

			_, err = tr.SetStats(ctx, 1, tc.dayCount, tc.last)
			assert.ErrorIs(t, err, ErrInvalidStats)
			assert.Equal(t, before, stats.row(1))
		})
	}
}

func TestSetStats_ClientClockSlightlyAhead(t *testing.T) {
	tr, stats, _, c := newTracker(t)
	ctx := context.Background()
	c.Set(time.Date(2026, 10, 16, 23, 58, 0, 0, time.UTC))

	got, err := tr.SetStats(ctx, 1, 2, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, daykey.Key("2026-10-16"), got.LastVisited)
	assert.Equal(t, daykey.Key("2026-10-16"), stats.row(1).LastVisited)

	_, err = tr.SetStats(ctx, 1, 3, "2026-10-18")
	assert.ErrorIs(t, err, ErrInvalidStats)
	assert.Equal(t, 2, stats.row(1).DayCount)
}

func TestStats_Monotone(t *testing.T) {
	tr, stats, _, c := newTracker(t)
	ctx := context.Background()

	prev := model.DefaultStats(1)
	for i := 0; i < 30; i++ {
		now := dayA.Add(time.Duration(i*7) * time.Hour)
		c.Set(now)
		switch i % 3 {
		case 0:
			_, _ = tr.RecordVisit(ctx, 1, now)
		case 1:
			_, _ = tr.SetStats(ctx, 1, prev.DayCount-1+i%2, daykey.Key("2026-10-01"))
		case 2:
			_, _ = tr.SetStats(ctx, 1, prev.DayCount+2, tr.days.Of(now))
		}
		cur := stats.row(1)
		assert.GreaterOrEqual(t, cur.DayCount, prev.DayCount, "step %d", i)
		assert.False(t, cur.LastVisited.Before(prev.LastVisited), "step %d", i)
		prev = cur
	}
}

func TestRecordVisit_PublishFailureDoesNotFail(t *testing.T) {
	tr, stats, pub, _ := newTracker(t)
	pub.err = errors.New("broker down")

	s, err := tr.RecordVisit(context.Background(), 1, dayA)
	require.NoError(t, err)
	assert.Equal(t, s, stats.row(1))
}
