package ring

// Queue is the single-producer/single-consumer channel the matching goroutine
// reads orders from. It never blocks: Push reports a full queue and Pop
// reports an empty one, leaving the retry or backpressure policy to the caller.
type Queue[T any] struct {
	ring *Ring[T]
}

// NewQueue returns a queue backed by a ring of n slots, holding at most n-1
// values.
func NewQueue[T any](n int) *Queue[T] {
	return &Queue[T]{ring: New[T](n)}
}

func (q *Queue[T]) Push(v T) bool {
	return q.ring.Push(v)
}

func (q *Queue[T]) Pop() (T, bool) {
	return q.ring.Pop()
}

func (q *Queue[T]) Len() int { return q.ring.Len() }

func (q *Queue[T]) Cap() int { return q.ring.Cap() }
