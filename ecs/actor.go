package ecs

import "strconv"

// ActorID packs a slot index in the low 32 bits and a generation in the high
// 32 bits. Slot indices start at 1 so the zero value is NullActor.
type ActorID uint64

type actorIndex uint32
type generation uint32

const actorIndexBits = 32

const NullActor ActorID = 0

func makeActor(idx actorIndex, gen generation) ActorID {
	return ActorID(uint64(gen)<<actorIndexBits | uint64(idx))
}

func (a ActorID) index() actorIndex {
	return actorIndex(uint32(a))
}

func (a ActorID) generation() generation {
	return generation(uint32(uint64(a) >> actorIndexBits))
}

func (a ActorID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

func (a ActorID) Valid() bool {
	return a != NullActor
}
