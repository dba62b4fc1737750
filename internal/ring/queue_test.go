package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id  int
	qty int64
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[item](16)
	assert.Equal(t, 15, q.Cap())

	for i := 0; i < 10; i++ {
		require.True(t, q.Push(item{id: i, qty: int64(i * 10)}))
	}
	assert.Equal(t, 10, q.Len())

	for i := 0; i < 10; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, item{id: i, qty: int64(i * 10)}, v)
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_FullThenDrain(t *testing.T) {
	q := NewQueue[int](3)

	assert.True(t, q.Push(1))
	assert.True(t, q.Push(2))
	assert.False(t, q.Push(3))

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	assert.True(t, q.Push(3))
	assert.Equal(t, 2, q.Len())
}
