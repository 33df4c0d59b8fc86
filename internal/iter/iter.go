// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"context"

	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/optional"
)

// NewSlice returns an Iterator over vs. The slice is not copied.
func NewSlice[T any](vs []T) idl.Iterator[T] {
	return &iteratorSlice[T]{rest: vs}
}

type iteratorSlice[T any] struct {
	rest []T
}

func (it *iteratorSlice[T]) Next(ctx context.Context) optional.Optional[T] {
	if len(it.rest) < 1 {
		return optional.None[T]()
	}
	v := it.rest[0]
	it.rest = it.rest[1:]
	return optional.Some(v)
}

func (it *iteratorSlice[T]) Close(ctx context.Context) error {
	it.rest = nil
	return nil
}

// NewIteratorFilter wraps an iterator with a filter so that only values that
// pass the filter are returned.
func NewIteratorFilter[T any](it idl.Iterator[T], f idl.Filter[T]) idl.Iterator[T] {
	return &iteratorFilter[T]{
		iter:   it,
		filter: f,
	}
}

type iteratorFilter[T any] struct {
	iter   idl.Iterator[T]
	filter idl.Filter[T]
}

func (it *iteratorFilter[T]) Next(ctx context.Context) optional.Optional[T] {
	for ctx.Err() == nil {
		v := it.iter.Next(ctx)
		if !v.IsPresent() {
			return v
		}
		if it.filter.Keep(ctx, v.Value()) {
			return v
		}
	}
	return optional.None[T]()
}

func (it *iteratorFilter[T]) Close(ctx context.Context) error {
	return it.iter.Close(ctx)
}

// Collect drains an iterator into a slice and closes it. The partial result
// is discarded when ctx is cancelled.
func Collect[T any](ctx context.Context, it idl.Iterator[T]) ([]T, error) {
	var out []T
	for v := it.Next(ctx); v.IsPresent(); v = it.Next(ctx) {
		out = append(out, v.Value())
	}
	closeErr := it.Close(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return out, nil
}

// FilterFunc is an adaptor for simple filter functions that makes them
// compatible with the Filter interface. Use like:
//
//	FilterFunc[T](func(ctx context.Context, val T) bool { return true })
//
// Note that this type should never be referenced directly in any signature.
// Always use Filter as an input or output type.
type FilterFunc[T any] func(ctx context.Context, val T) bool

func (f FilterFunc[T]) Keep(ctx context.Context, val T) bool {
	return f(ctx, val)
}
