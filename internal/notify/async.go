package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "ringbook/internal/common"
	"ringbook/internal/ring"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

const (
	defaultBatchSize     = 256
	defaultFlushInterval = 5 * time.Millisecond
	closeFlushTimeout    = 5 * time.Second
)

// Sink is the slow, external end of a notification pipeline. Publish must not
// keep batch after it returns, the slice is reused.
type Sink interface {
	Publish(ctx context.Context, batch []Notification) error
	Close() error
}

// Async is a Notifier that never blocks. Notify is the producer of a private
// SPSC ring and must only be called from one goroutine, normally the matching
// loop. A drain goroutine is the consumer and publishes batches to the sink.
// When the ring is full the notification is dropped and counted.
type Async struct {
	queue  *ring.Queue[Notification]
	sink   Sink
	logger zerolog.Logger

	batchSize     int
	flushInterval time.Duration

	t         *tomb.Tomb
	dropped   atomic.Uint64
	published atomic.Uint64
	failed    atomic.Uint64
}

// NewAsync buffers up to size-1 notifications in front of sink.
func NewAsync(sink Sink, size int, logger zerolog.Logger) *Async {
	return &Async{
		queue:         ring.NewQueue[Notification](size),
		sink:          sink,
		logger:        logger,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
}

// Start launches the drain goroutine.
func (a *Async) Start(ctx context.Context) {
	a.t, _ = tomb.WithContext(ctx)
	a.t.Go(a.drain)
}

func (a *Async) Notify(n Notification) {
	if a.queue.Push(n) {
		return
	}
	a.dropped.Add(1)
	a.logger.Warn().
		Int64("id", n.ID).
		Uint64("dropped", a.dropped.Load()).
		Msg("notification buffer full, dropping")
}

// Close stops the drain goroutine after a last flush and closes the sink.
func (a *Async) Close() error {
	var err error
	if a.t != nil {
		a.t.Kill(nil)
		if werr := a.t.Wait(); werr != nil &&
			!errors.Is(werr, context.Canceled) && !errors.Is(werr, context.DeadlineExceeded) {
			err = werr
		}
	}
	return errors.Join(err, a.sink.Close())
}

func (a *Async) Dropped() uint64   { return a.dropped.Load() }
func (a *Async) Published() uint64 { return a.published.Load() }
func (a *Async) Failed() uint64    { return a.failed.Load() }

func (a *Async) drain() error {
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	ctx := a.t.Context(context.Background())
	batch := make([]Notification, 0, a.batchSize)
	for {
		select {
		case <-a.t.Dying():
			a.flush(batch)
			return nil
		default:
		}

		batch = a.collect(batch[:0])
		if len(batch) > 0 {
			a.publish(ctx, batch)
			continue
		}

		select {
		case <-a.t.Dying():
			a.flush(batch)
			return nil
		case <-ticker.C:
		}
	}
}

// flush publishes whatever is still queued. The tomb's context is already
// cancelled at this point, so a fresh one bounds the final writes.
func (a *Async) flush(batch []Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
	defer cancel()
	for batch = a.collect(batch[:0]); len(batch) > 0; batch = a.collect(batch[:0]) {
		a.publish(ctx, batch)
	}
}

func (a *Async) collect(batch []Notification) []Notification {
	for len(batch) < a.batchSize {
		n, ok := a.queue.Pop()
		if !ok {
			break
		}
		batch = append(batch, n)
	}
	return batch
}

func (a *Async) publish(ctx context.Context, batch []Notification) {
	if err := a.sink.Publish(ctx, batch); err != nil {
		a.failed.Add(uint64(len(batch)))
		a.logger.Error().
			Err(err).
			Int("batch", len(batch)).
			Msg("unable to publish notifications")
		return
	}
	a.published.Add(uint64(len(batch)))
}
