package ecs

// Actors tracks live actor ids and recycles slots with a generation bump.
// Enumeration order is creation order, with removals shifting later actors
// down by one.
type Actors struct {
	gen   []generation
	free  []actorIndex
	order []ActorID
	pos   SparseSet[int]
}

func NewActors() *Actors {
	return &Actors{}
}

func (s *Actors) Create() ActorID {
	if s == nil {
		return NullActor
	}
	var idx actorIndex
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.gen = append(s.gen, 0)
		idx = actorIndex(len(s.gen))
	}
	a := makeActor(idx, s.gen[idx-1])
	s.pos.Set(a, len(s.order))
	s.order = append(s.order, a)
	return a
}

// Destroy releases a. It returns false when a is not alive.
func (s *Actors) Destroy(a ActorID) bool {
	if !s.Alive(a) {
		return false
	}
	p, _ := s.pos.Remove(a)
	copy(s.order[p:], s.order[p+1:])
	s.order = s.order[:len(s.order)-1]
	for i := p; i < len(s.order); i++ {
		s.pos.Set(s.order[i], i)
	}
	idx := a.index()
	s.gen[idx-1]++
	s.free = append(s.free, idx)
	return true
}

func (s *Actors) Alive(a ActorID) bool {
	if s == nil || !a.Valid() {
		return false
	}
	idx := int(a.index())
	if idx > len(s.gen) {
		return false
	}
	return s.gen[idx-1] == a.generation() && s.pos.Has(a)
}

func (s *Actors) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Index returns the i-th actor in enumeration order, or NullActor.
func (s *Actors) Index(i int) ActorID {
	if s == nil || i < 0 || i >= len(s.order) {
		return NullActor
	}
	return s.order[i]
}

// Each visits a snapshot of the live actors in enumeration order.
func (s *Actors) Each(fn func(ActorID)) {
	if s == nil || fn == nil {
		return
	}
	snapshot := append([]ActorID(nil), s.order...)
	for _, a := range snapshot {
		if s.Alive(a) {
			fn(a)
		}
	}
}

func (s *Actors) Clear() {
	if s == nil {
		return
	}
	for _, a := range append([]ActorID(nil), s.order...) {
		s.Destroy(a)
	}
}
