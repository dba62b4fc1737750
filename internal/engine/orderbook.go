package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	. "ringbook/internal/common"

	"github.com/rs/zerolog"
)

// ErrInvalidPrice rejects a limit order whose price could never trade.
var ErrInvalidPrice = errors.New("invalid limit price")

type Book struct {
	// Resting limit orders, best price first. Within a level orders are
	// kept in arrival order.
	bids *PriceLevels
	asks *PriceLevels

	tick     TickSize
	notifier Notifier
	matcher  Matcher
	logger   zerolog.Logger
}

// NewBook returns an empty book. The book is not safe for concurrent use: all
// calls to AddOrder must come from one goroutine.
func NewBook(opts ...Option) *Book {
	o := newOptions(opts)
	return &Book{
		bids:     NewPriceLevels(Descending),
		asks:     NewPriceLevels(Ascending),
		tick:     o.tick,
		notifier: o.notifier,
		matcher:  o.matcher,
		logger:   o.logger,
	}
}

// TickSize returns the price increment orders created by this book use.
func (b *Book) TickSize() TickSize { return b.tick }

// NewOrder creates an order carrying this book's tick size and notifier. It
// only reads configuration fixed at construction, so a producer goroutine may
// call it while the matching goroutine owns the book.
func (b *Book) NewOrder(id int64, side Side, orderType OrderType, quantity int64, price float64) *Order {
	return NewOrder(id, side, orderType, quantity, price,
		WithTickSize(b.tick),
		WithNotifier(b.notifier),
	)
}

// AddOrder is the single entry point mutating the book. The order is first
// matched against the opposite side. Then:
//  1. A market order is reported and dropped, whatever it managed to fill.
//  2. A limit order with quantity left rests at the back of its price level.
//
// A limit order priced NaN, infinite or below zero is rejected before it
// touches the book. If matching fails, the error is returned and the order is
// neither rested nor reported; fills completed before the failure stand.
func (b *Book) AddOrder(o *Order) error {
	if o.orderType == LimitOrder && !validLimitPrice(o.price) {
		return fmt.Errorf("%w: order %d price %v", ErrInvalidPrice, o.id, o.price)
	}
	if err := b.matcher.Match(o, b.levels(o.side.Opposite())); err != nil {
		return fmt.Errorf("order %d: %w", o.id, err)
	}

	switch o.orderType {
	case MarketOrder:
		o.Notify()
	case LimitOrder:
		if o.unexecuted > 0 {
			b.levels(o.side).append(o)
			b.logger.Debug().
				Int64("id", o.id).
				Str("side", o.side.String()).
				Float64("price", o.price).
				Int64("unexecuted", o.unexecuted).
				Msg("order resting")
		}
	}
	return nil
}

func validLimitPrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price >= 0
}

func (b *Book) levels(side Side) *PriceLevels {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// Depth summarises one side of the book.
type Depth struct {
	Levels   int
	Orders   int
	Quantity int64
	Best     float64 // Zero when the side is empty
}

// Depth returns a summary of the bid and ask sides.
func (b *Book) Depth() (bids, asks Depth) {
	return depth(b.bids), depth(b.asks)
}

func depth(side *PriceLevels) Depth {
	var d Depth
	d.Levels = side.Len()
	if best, ok := side.Best(); ok {
		d.Best = best.price
	}
	side.Walk(func(level *PriceLevel) bool {
		d.Orders += level.Len()
		d.Quantity += level.Quantity()
		return true
	})
	return d
}

// Dump writes the resting orders of both sides, best price first. It is a
// debugging aid only, the format is not stable.
func (b *Book) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "Limit Orders Sell:"); err != nil {
		return err
	}
	if err := dumpSide(tw, b.asks); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, "Limit Orders Buy:"); err != nil {
		return err
	}
	if err := dumpSide(tw, b.bids); err != nil {
		return err
	}
	return tw.Flush()
}

func dumpSide(w io.Writer, side *PriceLevels) error {
	if _, err := fmt.Fprintln(w, "ID\tPrice\tSize"); err != nil {
		return err
	}
	var err error
	side.Walk(func(level *PriceLevel) bool {
		for _, o := range level.orders {
			if _, err = fmt.Fprintf(w, "%d\t%.2f\t%d\n", o.id, level.price, o.unexecuted); err != nil {
				return false
			}
		}
		return true
	})
	return err
}
