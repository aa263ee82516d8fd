// Package observer provides a small typed fan-out used to report pipeline progress to
// loggers, status trackers and tests.
package observer

import (
	"context"
	"sync"
)

// Observer receives published events of type T.
type Observer[T any] interface {
	Notify(context.Context, T) error
}

// ObserverFunc adapts a standalone function into an Observer.
//
//revive:disable-next-line:exported
type ObserverFunc[T any] func(context.Context, T) error

// Notify executes the wrapped function.
func (f ObserverFunc[T]) Notify(ctx context.Context, evt T) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Filter forwards only the events accepted by keep.
func Filter[T any](obs Observer[T], keep func(T) bool) Observer[T] {
	return ObserverFunc[T](func(ctx context.Context, evt T) error {
		if obs == nil || !keep(evt) {
			return nil
		}
		return obs.Notify(ctx, evt)
	})
}

// Publisher publishes events to downstream observers.
type Publisher[T any] interface {
	Publish(context.Context, T)
}

type registration[T any] struct {
	obs Observer[T]
	id  uint64
}

// Subject fans events out to its observers in registration order. It is safe to
// publish from several goroutines; observers must be safe for concurrent calls.
// A nil *Subject is a valid no-op publisher.
type Subject[T any] struct {
	onError   func(T, error)
	observers []registration[T]
	next      uint64
	mu        sync.RWMutex
}

// NewSubject constructs a Subject with optional initial observers.
func NewSubject[T any](observers ...Observer[T]) *Subject[T] {
	s := &Subject[T]{}
	for _, o := range observers {
		s.Attach(o)
	}
	return s
}

// Publish invokes every observer with evt. Observer errors go to the error handler and
// never stop the fan-out.
func (s *Subject[T]) Publish(ctx context.Context, evt T) {
	if s == nil {
		return
	}

	s.mu.RLock()
	regs := append([]registration[T](nil), s.observers...)
	errHandler := s.onError
	s.mu.RUnlock()

	for _, r := range regs {
		if err := r.obs.Notify(ctx, evt); err != nil && errHandler != nil {
			errHandler(evt, err)
		}
	}
}

// Attach registers an observer and returns a function removing it again.
func (s *Subject[T]) Attach(obs Observer[T]) (detach func()) {
	if s == nil || obs == nil {
		return func() {}
	}
	s.mu.Lock()
	s.next++
	id := s.next
	s.observers = append(s.observers, registration[T]{id: id, obs: obs})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.detach(id) })
	}
}

func (s *Subject[T]) detach(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.observers {
		if r.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// Len reports the number of attached observers.
func (s *Subject[T]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// SetErrorHandler configures a callback for observer failures.
func (s *Subject[T]) SetErrorHandler(fn func(evt T, err error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}
