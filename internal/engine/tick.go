package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultTickSize is the price increment used when a book is not configured
// with one.
const DefaultTickSize TickSize = 0.05

// TickSize is the minimum price increment. Every limit price is quantised to
// a multiple of it when the order is created.
type TickSize float64

// Round returns price snapped to the nearest multiple of the tick, halves
// rounding away from zero. The arithmetic is done in decimal so that, for
// example, 100.614 at a 0.05 tick becomes exactly the float64 nearest 100.6.
// A non-positive tick, or a non-finite price, leaves the price unchanged.
func (t TickSize) Round(price float64) float64 {
	if t <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return price
	}
	tick := decimal.NewFromFloat(float64(t))
	rounded, _ := decimal.NewFromFloat(price).
		Div(tick).
		Round(0).
		Mul(tick).
		Float64()
	return rounded
}
