// Package ring provides a bounded, lock-free ring buffer for handing values
// from exactly one producer goroutine to exactly one consumer goroutine.
package ring

import (
	"fmt"
	"sync/atomic"
)

const cacheLineSize = 64

// Ring is a fixed-size circular buffer with N slots. One slot is always left
// empty so that head == tail means empty and tail+1 == head means full, giving
// a usable capacity of N-1.
//
// The producer owns tail, the consumer owns head. Each index is published with
// an atomic store after the slot access it guards, so a slot write is visible
// to the consumer before it observes the new tail (and likewise for the slot
// read before the producer observes the new head).
type Ring[T any] struct {
	buffer []T
	size   uint64

	// Keep head and tail on separate cache lines so the producer and the
	// consumer do not invalidate each other's line on every update.
	_pad1 [cacheLineSize]byte
	head  atomic.Uint64 // next slot to read, written by the consumer
	_pad2 [cacheLineSize - 8]byte
	tail  atomic.Uint64 // next slot to write, written by the producer
	_pad3 [cacheLineSize - 8]byte
}

// New allocates a ring with n slots. n must be at least 2.
func New[T any](n int) *Ring[T] {
	if n < 2 {
		panic(fmt.Sprintf("ring: size %d too small, need at least 2 slots", n))
	}
	return &Ring[T]{
		buffer: make([]T, n),
		size:   uint64(n),
	}
}

// Push writes v at the tail. It returns false without touching the ring when
// the ring is full. Only the producer may call Push.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	next := (tail + 1) % r.size
	if next == r.head.Load() {
		return false
	}
	r.buffer[tail] = v
	r.tail.Store(next)
	return true
}

// Pop removes and returns the value at the head. The boolean is false when the
// ring is empty. Only the consumer may call Pop.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}
	v := r.buffer[head]
	// Drop the reference so the slot does not pin popped values.
	r.buffer[head] = zero
	r.head.Store((head + 1) % r.size)
	return v, true
}

// Len reports the number of values currently stored. It is only a snapshot
// when called concurrently with Push or Pop.
func (r *Ring[T]) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int((tail + r.size - head) % r.size)
}

// Cap returns the usable capacity, one less than the number of slots.
func (r *Ring[T]) Cap() int {
	return int(r.size) - 1
}

// Size returns the number of slots.
func (r *Ring[T]) Size() int {
	return int(r.size)
}
