// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import "gopkg.microglot.org/avdl.go/internal/optional"

// Bounded is a fixed capacity LIFO history. Pushing onto a full history
// evicts the oldest entry.
type Bounded[T any] struct {
	ring  []T
	head  int
	count int
}

// NewBounded returns an empty history that remembers at most size entries.
func NewBounded[T any](size int) *Bounded[T] {
	if size < 1 {
		size = 1
	}
	return &Bounded[T]{ring: make([]T, size)}
}

func (b *Bounded[T]) Push(v T) {
	b.ring[b.head] = v
	b.head = (b.head + 1) % len(b.ring)
	if b.count < len(b.ring) {
		b.count = b.count + 1
	}
}

// Pop removes and returns the most recent entry.
func (b *Bounded[T]) Pop() optional.Optional[T] {
	if b.count == 0 {
		return optional.None[T]()
	}
	b.head = (b.head - 1 + len(b.ring)) % len(b.ring)
	b.count = b.count - 1
	v := b.ring[b.head]
	var zero T
	b.ring[b.head] = zero
	return optional.Some(v)
}

// Peek returns the most recent entry without removing it.
func (b *Bounded[T]) Peek() optional.Optional[T] {
	if b.count == 0 {
		return optional.None[T]()
	}
	return optional.Some(b.ring[(b.head-1+len(b.ring))%len(b.ring)])
}

func (b *Bounded[T]) Len() int {
	return b.count
}

func (b *Bounded[T]) Cap() int {
	return len(b.ring)
}
