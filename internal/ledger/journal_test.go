package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
)

func newJournal(t *testing.T) (*Journal, *memJournal, *recordingPublisher, *clock) {
	t.Helper()
	store := &memJournal{}
	pub := &recordingPublisher{}
	c, days := newClock(dayA)
	return NewJournal(store, days, pub, logging.Nop()), store, pub, c
}

func TestAppend_StoresEntry(t *testing.T) {
	j, store, pub, _ := newJournal(t)

	e, err := j.Append(context.Background(), 1, "peaceful", "", "  walked by the river ")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.ID)
	assert.Equal(t, "Peaceful", e.MoodLabel)
	assert.Equal(t, "😌", e.MoodGlyph)
	assert.Equal(t, "walked by the river", e.Message)
	assert.Equal(t, daykey.Key("2026-10-16"), e.DayKey)
	assert.Equal(t, dayA, e.CreatedAt)
	assert.Len(t, store.entries, 1)
	assert.Equal(t, []string{queue.TypeJournalAppended}, pub.types())
}

func TestAppend_Rejections(t *testing.T) {
	cases := []struct {
		name, mood, glyph, msg string
	}{
		{"blank message", "Happy", "😊", "   \n\t"},
		{"empty message", "Happy", "😊", ""},
		{"unknown mood", "Ecstatic", "", "hello"},
		{"glyph mismatch", "Happy", "😔", "hello"},
		{"oversized", "Happy", "", strings.Repeat("é", MaxMessageRunes+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j, store, pub, _ := newJournal(t)
			_, err := j.Append(context.Background(), 1, tc.mood, tc.glyph, tc.msg)
			assert.ErrorIs(t, err, ErrInvalidEntry)
			assert.Empty(t, store.entries)
			assert.Empty(t, pub.events)
		})
	}
}

func TestAppend_MaxLengthAccepted(t *testing.T) {
	j, _, _, _ := newJournal(t)
	_, err := j.Append(context.Background(), 1, "Happy", "😊", strings.Repeat("é", MaxMessageRunes))
	assert.NoError(t, err)
}

func TestAppend_NoDedup(t *testing.T) {
	j, store, _, _ := newJournal(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := j.Append(ctx, 1, "Tired", "", "same words")
		require.NoError(t, err)
	}
	assert.Len(t, store.entries, 2)
}

func TestList_NewestFirstPerUser(t *testing.T) {
	j, _, _, c := newJournal(t)
	ctx := context.Background()

	for i, msg := range []string{"one", "two", "three"} {
		c.Set(dayA.Add(time.Duration(i) * time.Hour))
		_, err := j.Append(ctx, 1, "Happy", "", msg)
		require.NoError(t, err)
	}
	_, err := j.Append(ctx, 2, "Sad", "", "other user")
	require.NoError(t, err)

	got, err := j.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "three", got[0].Message)
	assert.Equal(t, "one", got[2].Message)

	limited, err := j.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := j.List(ctx, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAppend_StorageFailure(t *testing.T) {
	j, store, _, _ := newJournal(t)
	store.err = errors.New("disk full")

	_, err := j.Append(context.Background(), 1, "Happy", "", "hi")
	assert.ErrorIs(t, err, ErrStorage)
}
