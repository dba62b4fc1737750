package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ringbook/internal/config"
	"ringbook/internal/engine"
	"ringbook/internal/notify"
	"ringbook/internal/ring"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	session := uuid.New()
	logger := log.With().Str("session", session.String()).Logger()

	// Notification sinks. Slow sinks sit behind their own ring so the
	// matching loop never waits on them.
	notifiers := notify.Fanout{notify.NewLog(logger)}
	var asyncs []*notify.Async
	if len(cfg.KafkaBrokers) > 0 {
		sink := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, session)
		asyncs = append(asyncs, notify.NewAsync(sink, cfg.NotifyBuffer, logger.With().Str("sink", "kafka").Logger()))
	}
	if cfg.JournalDir != "" {
		journal, err := notify.OpenJournal(cfg.JournalDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to open journal")
		}
		asyncs = append(asyncs, notify.NewAsync(journal, cfg.NotifyBuffer, logger.With().Str("sink", "journal").Logger()))
	}
	for _, a := range asyncs {
		a.Start(ctx)
		notifiers = append(notifiers, a)
	}

	// Setup the book and the matching loop.
	book := engine.NewBook(
		engine.WithTickSize(engine.TickSize(cfg.TickSize)),
		engine.WithNotifier(notifiers),
		engine.WithLogger(logger),
	)
	queue := ring.NewQueue[*engine.Order](cfg.QueueSize)
	runner := engine.NewRunner(book, queue, engine.RunnerConfig{
		IdlePolls:   cfg.IdlePolls,
		IdleBackoff: cfg.IdleBackoff,
		ExitOnIdle:  cfg.ExitOnIdle,
	}, logger)
	runner.Start(ctx)

	// Feed orders from stdin; this goroutine is the queue's only producer.
	submitted := make(chan uint64, 1)
	go func() {
		var n uint64
		err := readOrders(os.Stdin, func(o orderLine) error {
			if err := runner.SubmitWait(ctx, book.NewOrder(o.id, o.side, o.orderType, o.quantity, o.price)); err != nil {
				return err
			}
			n++
			return nil
		}, func(lineNo int, err error) {
			logger.Warn().Int("line", lineNo).Err(err).Msg("skipping order")
		})
		if err != nil && !errors.Is(err, engine.ErrNotSubmitted) {
			logger.Error().Err(err).Msg("reading orders")
		}
		logger.Info().Uint64("submitted", n).Msg("input finished")
		submitted <- n
	}()

	// Block until interrupted, the loop goes idle, or all input is matched.
	var total uint64
	inputDone := submitted
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case <-runner.Dead():
			break wait
		case total = <-inputDone:
			inputDone = nil
		case <-ticker.C:
			if inputDone == nil && runner.Processed() >= total {
				break wait
			}
		}
	}

	if err := runner.Stop(); err != nil {
		logger.Error().Err(err).Msg("matching loop failed")
	}
	for _, a := range asyncs {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("unable to close notification sink")
		}
	}

	bids, asks := book.Depth()
	logger.Info().
		Uint64("processed", runner.Processed()).
		Int("bid_orders", bids.Orders).
		Int("ask_orders", asks.Orders).
		Float64("best_bid", bids.Best).
		Float64("best_ask", asks.Best).
		Msg("shutdown")

	if cfg.DumpOnExit {
		if err := book.Dump(os.Stdout); err != nil {
			logger.Error().Err(err).Msg("unable to dump book")
		}
	}
}
