package misc

import "sync"

// Resetter is an interface for types that can reset their state.
type Resetter interface {
	Reset()
}

// Pool is a typed sync.Pool for values that reset themselves on return.
type Pool[T Resetter] struct {
	keep func(T) bool
	p    sync.Pool
}

// NewPool creates a new Pool for the specified type T.
func NewPool[T Resetter](newFn func() T) *Pool[T] {
	pl := &Pool[T]{}
	pl.p.New = func() any {
		if newFn != nil {
			return newFn()
		}
		var zero T
		return zero
	}
	return pl
}

// WithKeep installs a predicate deciding whether a returned value is worth
// pooling, e.g. to drop buffers that grew too large.
func (pl *Pool[T]) WithKeep(keep func(T) bool) *Pool[T] {
	pl.keep = keep
	return pl
}

// Get retrieves an object from the pool.
func (pl *Pool[T]) Get() T {
	obj := pl.p.Get()
	if value, ok := obj.(T); ok {
		return value
	}
	var zero T
	return zero
}

// Put resets v and returns it to the pool unless the keep predicate rejects it.
func (pl *Pool[T]) Put(v T) {
	if pl.keep != nil && !pl.keep(v) {
		return
	}
	v.Reset()
	pl.p.Put(v)
}
