package ecs

// SparseSet maps actors to values with O(1) lookup and dense iteration.
// Removal swaps the last element into the hole, so dense order is only stable
// between removals.
type SparseSet[T any] struct {
	dense  []ActorID
	values []T
	sparse []int32
}

func (s *SparseSet[T]) slot(a ActorID) (int, bool) {
	if s == nil || !a.Valid() {
		return 0, false
	}
	i := int(a.index()) - 1
	if i >= len(s.sparse) {
		return 0, false
	}
	d := int(s.sparse[i])
	if d < 0 || d >= len(s.dense) || s.dense[d] != a {
		return 0, false
	}
	return d, true
}

func (s *SparseSet[T]) Has(a ActorID) bool {
	_, ok := s.slot(a)
	return ok
}

// Get returns the value for a, or the zero value.
func (s *SparseSet[T]) Get(a ActorID) (T, bool) {
	d, ok := s.slot(a)
	if !ok {
		var zero T
		return zero, false
	}
	return s.values[d], true
}

// Ref returns a pointer into dense storage. It is invalidated by the next Set
// or Remove.
func (s *SparseSet[T]) Ref(a ActorID) *T {
	d, ok := s.slot(a)
	if !ok {
		return nil
	}
	return &s.values[d]
}

// Set inserts or replaces the value for a.
func (s *SparseSet[T]) Set(a ActorID, v T) {
	if s == nil || !a.Valid() {
		return
	}
	if d, ok := s.slot(a); ok {
		s.values[d] = v
		return
	}
	i := int(a.index()) - 1
	for len(s.sparse) <= i {
		s.sparse = append(s.sparse, -1)
	}
	s.dense = append(s.dense, a)
	s.values = append(s.values, v)
	s.sparse[i] = int32(len(s.dense) - 1)
}

// Remove deletes a's value and returns it.
func (s *SparseSet[T]) Remove(a ActorID) (T, bool) {
	d, ok := s.slot(a)
	if !ok {
		var zero T
		return zero, false
	}
	v := s.values[d]
	last := len(s.dense) - 1
	moved := s.dense[last]
	s.dense[d] = moved
	s.values[d] = s.values[last]
	s.sparse[int(moved.index())-1] = int32(d)

	var zero T
	s.values[last] = zero
	s.dense = s.dense[:last]
	s.values = s.values[:last]
	s.sparse[int(a.index())-1] = -1
	return v, true
}

func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dense)
}

// Actors returns the dense actor list. Callers must not modify it.
func (s *SparseSet[T]) Actors() []ActorID {
	if s == nil {
		return nil
	}
	return s.dense
}

// Each visits entries in dense order. fn may remove the visited entry;
// entries swapped into its slot are visited next.
func (s *SparseSet[T]) Each(fn func(ActorID, T)) {
	if s == nil || fn == nil {
		return
	}
	for i := 0; i < len(s.dense); {
		a := s.dense[i]
		fn(a, s.values[i])
		if i < len(s.dense) && s.dense[i] == a {
			i++
		}
	}
}

func (s *SparseSet[T]) Clear() {
	if s == nil {
		return
	}
	s.dense = s.dense[:0]
	clear(s.values)
	s.values = s.values[:0]
	s.sparse = s.sparse[:0]
}
