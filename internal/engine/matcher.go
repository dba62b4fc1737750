package engine

import (
	. "ringbook/internal/common"
)

// Matcher crosses an incoming order against the opposite side of the book.
// A Book calls it once for every order that passes its price check.
type Matcher interface {
	Match(incoming *Order, opposite *PriceLevels) error
}

// PriceTime matches under strict price-time priority. The opposite side is
// consumed best level first and, inside a level, oldest order first. Every
// trade happens at the resting order's price.
type PriceTime struct{}

// Match stops when the incoming order is filled, when the best resting order
// no longer crosses, or when the opposite side runs out. A remainder is not an
// error; it is left in the incoming order's unexecuted quantity.
func (PriceTime) Match(incoming *Order, opposite *PriceLevels) error {
	for incoming.unexecuted > 0 {
		level, ok := opposite.Best()
		if !ok {
			return nil
		}
		resting := level.Front()
		// Levels are price sorted: once the best one fails to cross,
		// nothing behind it can.
		if !crosses(incoming, resting) {
			return nil
		}

		quantity := min(incoming.unexecuted, resting.unexecuted)
		price := resting.price

		// Validate both legs before touching either so a rejected fill
		// never leaves one side half applied.
		if err := resting.canExecute(quantity, price); err != nil {
			return err
		}
		if err := incoming.canExecute(quantity, price); err != nil {
			return err
		}
		resting.fill(quantity, price)
		incoming.fill(quantity, price)

		if resting.unexecuted > 0 {
			// The incoming order took the smaller quantity and is done.
			return nil
		}
		level.popFront()
		if level.Len() == 0 {
			opposite.remove(level)
		}
	}
	return nil
}

// crosses reports whether incoming may trade with resting. Equal prices cross.
func crosses(incoming, resting *Order) bool {
	if incoming.side == Buy {
		return incoming.price >= resting.price
	}
	return incoming.price <= resting.price
}
