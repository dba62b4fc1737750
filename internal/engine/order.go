package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	. "ringbook/internal/common"
)

// ErrInvalidExecution is returned by Execute when the requested fill breaks
// one of the order's bounds. The matcher never builds such a fill itself, so
// seeing this error means there is a defect upstream.
var ErrInvalidExecution = errors.New("invalid execution")

// Notifier receives the terminal report of an order.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}

type Order struct {
	id        int64     // Caller assigned, unique for the life of the book
	side      Side      //
	orderType OrderType //
	quantity  int64     // Target quantity
	price     float64   // Target price, tick rounded or a market sentinel
	timestamp time.Time // Submission time, monotonic

	executed   int64   // Quantity filled so far
	unexecuted int64   // Quantity still open
	avgPrice   float64 // Volume weighted average fill price

	notifier Notifier
	notified bool
}

// NewOrder builds an order ready to be handed to a book. Limit prices are
// rounded to the configured tick. Market orders ignore price and take the most
// aggressive value for their side, so they cross any resting order.
//
// Quantity and price are not validated here; Execute enforces them.
func NewOrder(id int64, side Side, orderType OrderType, quantity int64, price float64, opts ...Option) *Order {
	o := newOptions(opts)

	switch {
	case orderType == MarketOrder && side == Buy:
		price = math.MaxFloat64
	case orderType == MarketOrder:
		price = -math.MaxFloat64
	default:
		price = o.tick.Round(price)
	}

	return &Order{
		id:         id,
		side:       side,
		orderType:  orderType,
		quantity:   quantity,
		price:      price,
		timestamp:  time.Now(),
		unexecuted: quantity,
		notifier:   o.notifier,
	}
}

func (o *Order) ID() int64            { return o.id }
func (o *Order) Side() Side           { return o.side }
func (o *Order) Type() OrderType      { return o.orderType }
func (o *Order) Quantity() int64      { return o.quantity }
func (o *Order) Price() float64       { return o.price }
func (o *Order) Timestamp() time.Time { return o.timestamp }
func (o *Order) Executed() int64      { return o.executed }
func (o *Order) Unexecuted() int64    { return o.unexecuted }
func (o *Order) AvgPrice() float64    { return o.avgPrice }

// Execute fills quantity at price. It is the only way execution state
// changes. On failure the order is left untouched.
//
// A limit order that becomes fully filled fires its notifier.
func (o *Order) Execute(quantity int64, price float64) error {
	if err := o.canExecute(quantity, price); err != nil {
		return err
	}
	o.fill(quantity, price)
	return nil
}

func (o *Order) canExecute(quantity int64, price float64) error {
	switch {
	case quantity <= 0:
		return fmt.Errorf("%w: order %d: quantity %d is not positive", ErrInvalidExecution, o.id, quantity)
	case price < 0:
		return fmt.Errorf("%w: order %d: price %f is negative", ErrInvalidExecution, o.id, price)
	case quantity > o.unexecuted:
		return fmt.Errorf("%w: order %d: quantity %d exceeds unexecuted %d", ErrInvalidExecution, o.id, quantity, o.unexecuted)
	case o.orderType == LimitOrder && o.side == Buy && price > o.price:
		return fmt.Errorf("%w: order %d: price %f above buy limit %f", ErrInvalidExecution, o.id, price, o.price)
	case o.orderType == LimitOrder && o.side == Sell && price < o.price:
		return fmt.Errorf("%w: order %d: price %f below sell limit %f", ErrInvalidExecution, o.id, price, o.price)
	}
	return nil
}

func (o *Order) fill(quantity int64, price float64) {
	value := o.avgPrice*float64(o.executed) + price*float64(quantity)
	o.executed += quantity
	o.unexecuted -= quantity
	o.avgPrice = value / float64(o.executed)

	if o.orderType == LimitOrder && o.unexecuted == 0 {
		o.Notify()
	}
}

// Notify sends the order's terminal report. Only the first call has any
// effect.
func (o *Order) Notify() {
	if o.notified {
		return
	}
	o.notified = true
	o.notifier.Notify(o.Notification())
}

// Notification snapshots the current execution state.
func (o *Order) Notification() Notification {
	return Notification{
		ID:         o.id,
		Side:       o.side,
		Type:       o.orderType,
		Executed:   o.executed,
		Unexecuted: o.unexecuted,
		AvgPrice:   o.avgPrice,
		At:         time.Now(),
	}
}

func (o *Order) String() string {
	return fmt.Sprintf(
		`ID:         %d
Side:       %v
Type:       %v
Price:      %f
Quantity:   %d (Executed: %d, Unexecuted: %d)
AvgPrice:   %f
Timestamp:  %v`,
		o.id,
		o.side,
		o.orderType,
		o.price,
		o.quantity,
		o.executed,
		o.unexecuted,
		o.avgPrice,
		o.timestamp.Format(time.RFC3339Nano),
	)
}
