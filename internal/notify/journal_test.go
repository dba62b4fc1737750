package notify

import (
	"context"
	"errors"
	"math"
	"testing"

	. "ringbook/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_PublishAndGet(t *testing.T) {
	j := openTestJournal(t)
	want := testNotification(7, 30, 20)

	require.NoError(t, j.Publish(context.Background(), []Notification{want}))

	got, err := j.Get(7)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Executed, got.Executed)
	assert.Equal(t, want.Unexecuted, got.Unexecuted)
	assert.Equal(t, want.AvgPrice, got.AvgPrice)
	assert.True(t, want.At.Equal(got.At))
	assert.Equal(t, PartiallyFilled, got.Outcome())
}

func TestJournal_GetMissing(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJournal_Scan(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Publish(context.Background(), []Notification{
		testNotification(3, 1, 0),
		testNotification(1, 1, 0),
		testNotification(2, 0, 1),
	}))

	var ids []int64
	require.NoError(t, j.Scan(func(n Notification) error {
		ids = append(ids, n.ID)
		return nil
	}))
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestJournal_ScanNegativeIDs(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Publish(context.Background(), []Notification{
		testNotification(5, 1, 0),
		testNotification(-1, 1, 0),
		testNotification(0, 1, 0),
		testNotification(math.MinInt64, 1, 0),
		testNotification(math.MaxInt64, 1, 0),
	}))

	var ids []int64
	require.NoError(t, j.Scan(func(n Notification) error {
		ids = append(ids, n.ID)
		return nil
	}))
	assert.Equal(t, []int64{math.MinInt64, -1, 0, 5, math.MaxInt64}, ids)

	got, err := j.Get(-1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), got.ID)
}

func TestJournalKey_RoundTrip(t *testing.T) {
	for _, id := range []int64{math.MinInt64, -42, 0, 42, math.MaxInt64} {
		got, err := parseJournalKey(journalKey(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestJournal_ScanStops(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Publish(context.Background(), []Notification{
		testNotification(1, 1, 0),
		testNotification(2, 1, 0),
	}))

	stop := errors.New("stop")
	var visited int
	err := j.Scan(func(Notification) error {
		visited++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func TestDecodeRecord_Invalid(t *testing.T) {
	_, err := decodeRecord(1, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
