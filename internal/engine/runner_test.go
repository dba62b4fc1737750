package engine

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	. "ringbook/internal/common"
	"ringbook/internal/ring"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(size int, config RunnerConfig) (*Runner, *Book, *recorder) {
	book, rec := createTestBook()
	queue := ring.NewQueue[*Order](size)
	return NewRunner(book, queue, config, zerolog.Nop()), book, rec
}

func TestRunner_DrainsQueueAndExitsOnIdle(t *testing.T) {
	runner, book, rec := newTestRunner(8, RunnerConfig{IdlePolls: 100, ExitOnIdle: true})

	require.True(t, runner.Submit(book.NewOrder(1, Sell, LimitOrder, 100, 5.0)))
	require.True(t, runner.Submit(book.NewOrder(2, Sell, LimitOrder, 100, 5.0)))
	require.True(t, runner.Submit(book.NewOrder(3, Buy, MarketOrder, 150, 0)))

	runner.Start(context.Background())
	require.NoError(t, runner.Wait())

	assert.Equal(t, uint64(3), runner.Processed())
	assert.Equal(t, []int64{1, 3}, rec.ids())
	assert.Equal(t, []flatLevel{
		{5.0, []restingOrder{rest(2, 50, 100)}},
	}, flattenLevels(book.asks))
}

func TestRunner_SubmitFull(t *testing.T) {
	runner, book, _ := newTestRunner(3, DefaultRunnerConfig())

	assert.True(t, runner.Submit(book.NewOrder(1, Buy, LimitOrder, 1, 1)))
	assert.True(t, runner.Submit(book.NewOrder(2, Buy, LimitOrder, 1, 1)))
	assert.False(t, runner.Submit(book.NewOrder(3, Buy, LimitOrder, 1, 1)))
}

func TestRunner_SubmitWaitCancelled(t *testing.T) {
	runner, book, _ := newTestRunner(2, DefaultRunnerConfig())
	require.True(t, runner.Submit(book.NewOrder(1, Buy, LimitOrder, 1, 1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.SubmitWait(ctx, book.NewOrder(2, Buy, LimitOrder, 1, 1))
	assert.ErrorIs(t, err, ErrNotSubmitted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_StopOnContext(t *testing.T) {
	runner, _, _ := newTestRunner(8, RunnerConfig{IdlePolls: 10, IdleBackoff: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)
	cancel()

	select {
	case <-runner.Dead():
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after context cancel")
	}
	assert.NoError(t, runner.Wait())
}

func TestRunner_StopNotStarted(t *testing.T) {
	runner, _, _ := newTestRunner(8, DefaultRunnerConfig())
	assert.NoError(t, runner.Stop())
	assert.NoError(t, runner.Wait())
}

func TestRunner_DeadBeforeStart(t *testing.T) {
	runner, _, _ := newTestRunner(8, DefaultRunnerConfig())

	select {
	case <-runner.Dead():
	default:
		t.Fatal("Dead should be closed before Start")
	}
}

func TestRunner_LogsRejectedOrders(t *testing.T) {
	var buf bytes.Buffer
	book, rec := createTestBook()
	queue := ring.NewQueue[*Order](8)
	runner := NewRunner(book, queue, RunnerConfig{IdlePolls: 100, ExitOnIdle: true}, zerolog.New(&buf))

	require.True(t, runner.Submit(book.NewOrder(1, Buy, LimitOrder, 10, math.NaN())))
	require.True(t, runner.Submit(book.NewOrder(2, Sell, LimitOrder, 10, 5.0)))
	require.True(t, runner.Submit(book.NewOrder(3, Buy, MarketOrder, 10, 0)))

	runner.Start(context.Background())
	require.NoError(t, runner.Wait())

	// The rejected order is counted and logged, and the loop carries on.
	assert.Equal(t, uint64(3), runner.Processed())
	assert.Contains(t, buf.String(), "order rejected")
	assert.Contains(t, buf.String(), `"id":1`)
	assert.Zero(t, book.bids.Len())
	assert.Zero(t, book.asks.Len())
	assert.Equal(t, []int64{2, 3}, rec.ids())
}

func TestRunner_ConcurrentProducer(t *testing.T) {
	const n = 500
	runner, book, rec := newTestRunner(16, RunnerConfig{IdlePolls: 64, IdleBackoff: 10 * time.Microsecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runner.Start(ctx)

	// Every market buy lifts exactly one resting sell.
	go func() {
		for i := int64(1); i <= n; i++ {
			if err := runner.SubmitWait(ctx, book.NewOrder(i, Sell, LimitOrder, 1, 10)); err != nil {
				return
			}
		}
		for i := int64(n + 1); i <= 2*n; i++ {
			if err := runner.SubmitWait(ctx, book.NewOrder(i, Buy, MarketOrder, 1, 0)); err != nil {
				return
			}
		}
	}()

	require.Eventually(t, func() bool {
		return runner.Processed() == 2*n
	}, 10*time.Second, time.Millisecond)
	require.NoError(t, runner.Stop())

	assert.Zero(t, book.asks.Len())
	assert.Zero(t, book.bids.Len())
	require.Len(t, rec.got, 2*n)

	// Resting sells are lifted in the order they arrived.
	var lifted []int64
	for _, note := range rec.got {
		if note.Side == Sell {
			lifted = append(lifted, note.ID)
		}
	}
	require.Len(t, lifted, n)
	for i, id := range lifted {
		assert.Equal(t, int64(i+1), id)
	}
}
