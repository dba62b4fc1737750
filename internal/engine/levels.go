package engine

import (
	"github.com/tidwall/btree"
)

// Direction is the order in which a side's price levels are visited, best
// first.
type Direction int

const (
	// Ascending puts the lowest price first. Used for asks.
	Ascending Direction = iota
	// Descending puts the highest price first. Used for bids.
	Descending
)

// PriceLevel is the FIFO queue of resting orders sharing one price.
type PriceLevel struct {
	price  float64
	orders []*Order
}

func (l *PriceLevel) Price() float64 { return l.price }
func (l *PriceLevel) Len() int       { return len(l.orders) }

// Front returns the oldest order at this level, or nil if it is empty.
func (l *PriceLevel) Front() *Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// Orders returns a copy of the level's orders, oldest first.
func (l *PriceLevel) Orders() []*Order {
	return append([]*Order(nil), l.orders...)
}

// Quantity sums the unexecuted quantity resting at this level.
func (l *PriceLevel) Quantity() int64 {
	var total int64
	for _, o := range l.orders {
		total += o.unexecuted
	}
	return total
}

func (l *PriceLevel) pushBack(o *Order) {
	l.orders = append(l.orders, o)
}

func (l *PriceLevel) popFront() *Order {
	o := l.orders[0]
	l.orders[0] = nil
	l.orders = l.orders[1:]
	return o
}

// PriceLevels is one side of the book: price levels kept sorted so that the
// best price is always the minimum of the tree. The same type serves both
// sides, only the direction of the comparator differs.
type PriceLevels struct {
	direction Direction
	levels    *btree.BTreeG[*PriceLevel]
}

func NewPriceLevels(direction Direction) *PriceLevels {
	less := func(a, b *PriceLevel) bool {
		return a.price < b.price
	}
	if direction == Descending {
		less = func(a, b *PriceLevel) bool {
			return a.price > b.price
		}
	}
	return &PriceLevels{
		direction: direction,
		// The book is owned by a single goroutine, skip the tree's own locking.
		levels: btree.NewBTreeGOptions(less, btree.Options{NoLocks: true}),
	}
}

func (p *PriceLevels) Direction() Direction { return p.direction }

// Len returns the number of price levels.
func (p *PriceLevels) Len() int { return p.levels.Len() }

// Best returns the best priced level.
func (p *PriceLevels) Best() (*PriceLevel, bool) {
	return p.levels.MinMut()
}

// Get returns the level at exactly price.
func (p *PriceLevels) Get(price float64) (*PriceLevel, bool) {
	// The comparator only looks at price, so a bare level works as the key.
	return p.levels.GetMut(&PriceLevel{price: price})
}

// Walk visits levels best first until fn returns false.
func (p *PriceLevels) Walk(fn func(*PriceLevel) bool) {
	p.levels.Scan(fn)
}

// append adds o to the back of the level at its price, creating the level if
// it does not exist yet.
func (p *PriceLevels) append(o *Order) {
	if level, ok := p.Get(o.price); ok {
		level.pushBack(o)
		return
	}
	p.levels.Set(&PriceLevel{
		price:  o.price,
		orders: []*Order{o},
	})
}

func (p *PriceLevels) remove(level *PriceLevel) {
	p.levels.Delete(level)
}
