package ecs

import "errors"

var ErrNilConstructor = errors.New("ecs: store constructor is nil")

// Base is embedded by every component record. Components start disabled.
type Base struct {
	enabled bool
}

func (b *Base) base() *Base { return b }

func (b *Base) Enabled() bool {
	return b != nil && b.enabled
}

// Component is satisfied by a pointer to any struct embedding Base.
type Component interface {
	base() *Base
}

// Store holds at most one component of type T per actor.
type Store[T Component] struct {
	set     SparseSet[T]
	newFunc func() T
}

func NewStore[T Component](newFunc func() T) *Store[T] {
	if newFunc == nil {
		panic(ErrNilConstructor)
	}
	return &Store[T]{newFunc: newFunc}
}

// Add returns the actor's component, creating a disabled one if absent.
// created is false when the component already existed.
func (s *Store[T]) Add(a ActorID) (c T, created bool) {
	if s == nil || !a.Valid() {
		return c, false
	}
	if existing, ok := s.set.Get(a); ok {
		return existing, false
	}
	c = s.newFunc()
	s.set.Set(a, c)
	return c, true
}

func (s *Store[T]) Remove(a ActorID) (T, bool) {
	if s == nil {
		var zero T
		return zero, false
	}
	return s.set.Remove(a)
}

func (s *Store[T]) Has(a ActorID) bool {
	return s != nil && s.set.Has(a)
}

// Get returns the actor's component or the nil T.
func (s *Store[T]) Get(a ActorID) T {
	if s == nil {
		var zero T
		return zero
	}
	c, _ := s.set.Get(a)
	return c
}

// GetEnabled returns the component only when it exists and is enabled.
func (s *Store[T]) GetEnabled(a ActorID) T {
	c, ok := s.lookup(a)
	if !ok || !c.base().enabled {
		var zero T
		return zero
	}
	return c
}

func (s *Store[T]) lookup(a ActorID) (T, bool) {
	if s == nil {
		var zero T
		return zero, false
	}
	return s.set.Get(a)
}

func (s *Store[T]) IsEnabled(a ActorID) bool {
	c, ok := s.lookup(a)
	return ok && c.base().enabled
}

// Enable marks the component enabled. changed reports an actual transition.
func (s *Store[T]) Enable(a ActorID) (c T, changed bool) {
	c, ok := s.lookup(a)
	if !ok || c.base().enabled {
		return c, false
	}
	c.base().enabled = true
	return c, true
}

// Disable marks the component disabled. changed reports an actual transition.
func (s *Store[T]) Disable(a ActorID) (c T, changed bool) {
	c, ok := s.lookup(a)
	if !ok || !c.base().enabled {
		return c, false
	}
	c.base().enabled = false
	return c, true
}

func (s *Store[T]) HasAnyEnabled() bool {
	if s == nil {
		return false
	}
	for _, c := range s.set.values {
		if c.base().enabled {
			return true
		}
	}
	return false
}

func (s *Store[T]) Len() int {
	if s == nil {
		return 0
	}
	return s.set.Len()
}

func (s *Store[T]) Each(fn func(ActorID, T)) {
	if s == nil {
		return
	}
	s.set.Each(fn)
}

// EachEnabled visits enabled components only.
func (s *Store[T]) EachEnabled(fn func(ActorID, T)) {
	if s == nil || fn == nil {
		return
	}
	s.set.Each(func(a ActorID, c T) {
		if c.base().enabled {
			fn(a, c)
		}
	})
}

// Actors returns a copy of the actors holding a component.
func (s *Store[T]) Actors() []ActorID {
	if s == nil {
		return nil
	}
	return append([]ActorID(nil), s.set.Actors()...)
}
