package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"ringbook/internal/ring"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

var ErrNotSubmitted = errors.New("order not submitted")

const (
	defaultIdlePolls   = 1 << 10
	defaultIdleBackoff = 50 * time.Microsecond
)

type RunnerConfig struct {
	// IdlePolls is how many empty polls in a row count as idle. Zero means
	// never idle: the loop spins until stopped.
	IdlePolls int
	// IdleBackoff is how long an idle loop sleeps before polling again.
	IdleBackoff time.Duration
	// ExitOnIdle makes the loop return instead of backing off once idle.
	ExitOnIdle bool
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		IdlePolls:   defaultIdlePolls,
		IdleBackoff: defaultIdleBackoff,
	}
}

// Runner is the consumer side of the order queue. It owns the book from Start
// until the loop exits; nothing else may call AddOrder in between. Submit and
// SubmitWait are the producer side and must only be called from one goroutine.
type Runner struct {
	book   *Book
	queue  *ring.Queue[*Order]
	config RunnerConfig
	logger zerolog.Logger

	t         *tomb.Tomb
	processed atomic.Uint64
}

func NewRunner(book *Book, queue *ring.Queue[*Order], config RunnerConfig, logger zerolog.Logger) *Runner {
	return &Runner{
		book:   book,
		queue:  queue,
		config: config,
		logger: logger,
	}
}

// Start launches the matching loop. The loop stops when ctx is cancelled,
// when Stop is called, or on idle if configured to.
func (r *Runner) Start(ctx context.Context) {
	r.t, _ = tomb.WithContext(ctx)
	r.t.Go(r.loop)
}

// Stop asks the loop to exit and waits for it. Orders still queued are left
// in the queue.
func (r *Runner) Stop() error {
	if r.t == nil {
		return nil
	}
	r.t.Kill(nil)
	return stopReason(r.t.Wait())
}

// Wait blocks until the loop has exited.
func (r *Runner) Wait() error {
	if r.t == nil {
		return nil
	}
	return stopReason(r.t.Wait())
}

// stopReason hides the context error the tomb records when the parent
// context ends; that is an ordinary shutdown.
func stopReason(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Dead is closed once the loop has exited. Before Start it is already closed.
func (r *Runner) Dead() <-chan struct{} {
	if r.t == nil {
		return closed
	}
	return r.t.Dead()
}

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Processed is the number of orders the loop has handed to the book.
func (r *Runner) Processed() uint64 {
	return r.processed.Load()
}

// Submit queues o without blocking. It reports false when the queue is full,
// leaving the caller to retry, drop or push back upstream.
func (r *Runner) Submit(o *Order) bool {
	return r.queue.Push(o)
}

// SubmitWait retries Submit, yielding between attempts, until the order is
// queued or ctx is done.
func (r *Runner) SubmitWait(ctx context.Context, o *Order) error {
	for !r.queue.Push(o) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: order %d: %w", ErrNotSubmitted, o.id, ctx.Err())
		default:
			runtime.Gosched()
		}
	}
	return nil
}

func (r *Runner) loop() error {
	r.logger.Info().
		Int("queue_capacity", r.queue.Cap()).
		Int("idle_polls", r.config.IdlePolls).
		Bool("exit_on_idle", r.config.ExitOnIdle).
		Msg("matching loop running")

	idle := 0
	for {
		select {
		case <-r.t.Dying():
			r.logStopped("matching loop stopped")
			return nil
		default:
		}

		o, ok := r.queue.Pop()
		if !ok {
			idle++
			if r.config.IdlePolls > 0 && idle >= r.config.IdlePolls {
				if r.config.ExitOnIdle {
					r.logStopped("matching loop idle, exiting")
					return nil
				}
				r.backoff()
				idle = 0
			}
			continue
		}

		idle = 0
		if err := r.book.AddOrder(o); err != nil {
			r.logger.Error().
				Err(err).
				Int64("id", o.id).
				Str("side", o.side.String()).
				Msg("order rejected")
		}
		r.processed.Add(1)
	}
}

func (r *Runner) backoff() {
	if r.config.IdleBackoff <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(r.config.IdleBackoff)
}

func (r *Runner) logStopped(msg string) {
	bids, asks := r.book.Depth()
	r.logger.Info().
		Uint64("processed", r.processed.Load()).
		Int("pending", r.queue.Len()).
		Int("bid_levels", bids.Levels).
		Int("ask_levels", asks.Levels).
		Msg(msg)
}
