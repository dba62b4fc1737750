package engine

import (
	"testing"

	. "ringbook/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(levels *PriceLevels) []float64 {
	var out []float64
	levels.Walk(func(level *PriceLevel) bool {
		out = append(out, level.Price())
		return true
	})
	return out
}

func TestPriceLevels_Ordering(t *testing.T) {
	asks := NewPriceLevels(Ascending)
	bids := NewPriceLevels(Descending)

	for i, p := range []float64{5, 10, 7, 5, 1} {
		asks.append(NewOrder(int64(i), Sell, LimitOrder, 1, p))
		bids.append(NewOrder(int64(i), Buy, LimitOrder, 1, p))
	}

	assert.Equal(t, []float64{1, 5, 7, 10}, prices(asks))
	assert.Equal(t, []float64{10, 7, 5, 1}, prices(bids))

	best, ok := asks.Best()
	require.True(t, ok)
	assert.Equal(t, 1.0, best.Price())

	best, ok = bids.Best()
	require.True(t, ok)
	assert.Equal(t, 10.0, best.Price())
}

func TestPriceLevels_AppendKeepsArrivalOrder(t *testing.T) {
	levels := NewPriceLevels(Ascending)
	first := NewOrder(1, Sell, LimitOrder, 10, 5)
	second := NewOrder(2, Sell, LimitOrder, 20, 5)

	levels.append(first)
	levels.append(second)

	level, ok := levels.Get(5)
	require.True(t, ok)
	assert.Equal(t, 1, levels.Len())
	assert.Equal(t, []*Order{first, second}, level.Orders())
	assert.Equal(t, int64(30), level.Quantity())
	assert.Same(t, first, level.Front())
}

func TestPriceLevels_PopAndRemove(t *testing.T) {
	levels := NewPriceLevels(Descending)
	levels.append(NewOrder(1, Buy, LimitOrder, 10, 5))
	levels.append(NewOrder(2, Buy, LimitOrder, 10, 6))

	level, ok := levels.Best()
	require.True(t, ok)
	assert.Equal(t, int64(2), level.popFront().ID())
	assert.Zero(t, level.Len())
	assert.Nil(t, level.Front())

	levels.remove(level)
	assert.Equal(t, []float64{5}, prices(levels))

	_, ok = levels.Get(6)
	assert.False(t, ok)
}

func TestPriceLevels_Empty(t *testing.T) {
	levels := NewPriceLevels(Ascending)

	_, ok := levels.Best()
	assert.False(t, ok)
	assert.Zero(t, levels.Len())
	assert.Nil(t, prices(levels))
}

func TestPriceLevels_WalkStops(t *testing.T) {
	levels := NewPriceLevels(Ascending)
	for i, p := range []float64{1, 2, 3} {
		levels.append(NewOrder(int64(i), Sell, LimitOrder, 1, p))
	}

	var visited int
	levels.Walk(func(*PriceLevel) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}
