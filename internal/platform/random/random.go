// Package random provides the injectable random source used for phrasing and
// intervention choices.
package random

import (
	"math/rand/v2"
	"time"
)

// Source is the subset of *rand.Rand the companion needs.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// New returns a PCG-backed source seeded with seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewTimeSeeded returns a source seeded from the wall clock.
func NewTimeSeeded() Source {
	return New(uint64(time.Now().UnixNano()))
}

// Pick returns a uniformly chosen element of items, or the zero value when
// items is empty.
func Pick[T any](src Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[src.IntN(len(items))]
}
