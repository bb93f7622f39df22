// Package collection implements the bounded multiset used for operator
// buckets: constant-time insert, remove-by-value and random pick.
package collection

import (
	"errors"

	"github.com/roach88/xfersynth/internal/random"
)

// ErrDuplicate is returned by Insert when the element is already present.
var ErrDuplicate = errors.New("collection: duplicate element")

// Collection is an ordered set of distinct elements with a value-to-index
// lookup. Order is insertion order until a Remove swaps the last element
// into the vacated slot.
type Collection[T comparable] struct {
	items []T
	index map[T]int
	src   *random.Source
}

// New builds a collection from items. Duplicates after the first
// occurrence are dropped.
func New[T comparable](items []T, src *random.Source) *Collection[T] {
	c := &Collection[T]{
		items: make([]T, 0, len(items)),
		index: make(map[T]int, len(items)),
		src:   src,
	}
	for _, it := range items {
		_ = c.Insert(it)
	}
	return c
}

// Insert appends v. It fails with ErrDuplicate if v is present.
func (c *Collection[T]) Insert(v T) error {
	if _, ok := c.index[v]; ok {
		return ErrDuplicate
	}
	c.index[v] = len(c.items)
	c.items = append(c.items, v)
	return nil
}

// Remove deletes v by swapping the last element into its slot. Removing an
// absent element is a no-op.
func (c *Collection[T]) Remove(v T) {
	idx, ok := c.index[v]
	if !ok {
		return
	}
	last := len(c.items) - 1
	moved := c.items[last]
	c.items[idx] = moved
	c.index[moved] = idx
	var zero T
	c.items[last] = zero
	c.items = c.items[:last]
	delete(c.index, v)
}

// Contains reports whether v is present.
func (c *Collection[T]) Contains(v T) bool {
	_, ok := c.index[v]
	return ok
}

// IndexOf returns the current slot of v.
func (c *Collection[T]) IndexOf(v T) (int, bool) {
	idx, ok := c.index[v]
	return idx, ok
}

// Len returns the number of elements.
func (c *Collection[T]) Len() int { return len(c.items) }

// Items returns a copy of the elements in slot order.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// PickUniform returns a uniformly random element, or false when empty.
func (c *Collection[T]) PickUniform() (T, bool) {
	return random.Choice(c.src, c.items)
}

// PickWeighted samples an element proportionally to weights. Elements
// missing from weights weigh 1. It returns false when empty.
func (c *Collection[T]) PickWeighted(weights map[T]float64) (T, bool) {
	var zero T
	if len(c.items) == 0 {
		return zero, false
	}
	ws := make([]float64, len(c.items))
	for i, it := range c.items {
		w, ok := weights[it]
		if !ok {
			w = 1
		}
		ws[i] = w
	}
	idx, _ := random.WeightedIndex(c.src, ws)
	return c.items[idx], true
}

// PickIf returns the first element satisfying pred, scanning circularly from
// a uniformly random slot. It visits each element at most once.
func (c *Collection[T]) PickIf(pred func(T) bool) (T, bool) {
	return PickIf(c.src, c.items, pred)
}

// PickIf is the circular scan of Collection.PickIf over a plain slice. The
// random start keeps repeated calls from favoring early elements.
func PickIf[T any](src *random.Source, items []T, pred func(T) bool) (T, bool) {
	var zero T
	n := len(items)
	if n == 0 {
		return zero, false
	}
	idx := src.Intn(n)
	for range n {
		if pred(items[idx]) {
			return items[idx], true
		}
		idx++
		if idx == n {
			idx = 0
		}
	}
	return zero, false
}
