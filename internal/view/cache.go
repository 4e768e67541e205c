// Package view holds the lazily computed projection of a store's flat
// values.
package view

import "sync/atomic"

// Cache holds at most one computed value until it is invalidated.
//
// Cache does not lock. The owning store guards it with the same mutex
// that guards the flat values it is computed from, so a reader can never
// observe a value that disagrees with the flat values.
type Cache[T any] struct {
	value T
	valid bool

	computations atomic.Int64
}

// Get returns the cached value, running compute first if the cache is
// empty. A failed computation leaves the cache empty.
func (c *Cache[T]) Get(compute func() (T, error)) (T, error) {
	if c.valid {
		return c.value, nil
	}
	c.computations.Add(1)
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.valid = true
	return v, nil
}

// Invalidate discards the cached value unconditionally.
func (c *Cache[T]) Invalidate() {
	var zero T
	c.value = zero
	c.valid = false
}

// Valid reports whether a computed value is held.
func (c *Cache[T]) Valid() bool {
	return c.valid
}

// Computations returns how many times compute has been run.
func (c *Cache[T]) Computations() int64 {
	return c.computations.Load()
}
