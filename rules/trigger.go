package rules

import "github.com/milk9111/rulesplayer/ecs"

// Extras carries data from the firing site into the response chain.
type Extras struct {
	Other ecs.ActorID
}

// TriggerEntry is one rule's trigger on one actor.
type TriggerEntry[T any] struct {
	Trigger  T
	Response ResponseRef
}

// EnabledChecker is implemented by behaviors whose enablement can gate a
// trigger.
type EnabledChecker interface {
	IsComponentEnabled(actor ecs.ActorID) bool
}

type triggerStore interface {
	removeActor(a ecs.ActorID)
	clearAll()
}

type triggerTable[T any] struct {
	entries ecs.SparseSet[[]TriggerEntry[T]]
}

func (t *triggerTable[T]) removeActor(a ecs.ActorID) { t.entries.Remove(a) }
func (t *triggerTable[T]) clearAll()                 { t.entries.Clear() }

func lookupTable[T any](e *Engine, k TriggerKind[T]) *triggerTable[T] {
	if e == nil || k.id <= 0 || int(k.id) >= len(e.triggers) {
		return nil
	}
	t, _ := e.triggers[k.id].(*triggerTable[T])
	return t
}

func ensureTable[T any](e *Engine, k TriggerKind[T]) *triggerTable[T] {
	if t := lookupTable(e, k); t != nil {
		return t
	}
	for int(k.id) >= len(e.triggers) {
		e.triggers = append(e.triggers, nil)
	}
	t := &triggerTable[T]{}
	e.triggers[k.id] = t
	return t
}

// AddTrigger attaches a trigger entry to actor. An actor may hold several
// entries of the same kind.
func AddTrigger[T any](e *Engine, k TriggerKind[T], actor ecs.ActorID, trigger T, resp ResponseRef) {
	if e == nil || !k.Valid() {
		return
	}
	t := ensureTable(e, k)
	entries, _ := t.entries.Get(actor)
	t.entries.Set(actor, append(entries, TriggerEntry[T]{Trigger: trigger, Response: resp}))
}

// Fire schedules every entry of kind k on actor.
func Fire[T any](e *Engine, k TriggerKind[T], actor ecs.ActorID, extras Extras) bool {
	return FireIf(e, k, actor, extras, nil)
}

// FireIf schedules each entry of kind k on actor whose trigger satisfies
// pred. A nil pred accepts every entry.
func FireIf[T any](e *Engine, k TriggerKind[T], actor ecs.ActorID, extras Extras, pred func(*T) bool) bool {
	t := lookupTable(e, k)
	if t == nil {
		return false
	}
	entries, ok := t.entries.Get(actor)
	if !ok {
		return false
	}
	fired := false
	for i := range entries {
		if pred != nil && !pred(&entries[i].Trigger) {
			continue
		}
		if e.fire(actor, entries[i].Response, extras) {
			fired = true
		}
	}
	return fired
}

// FireNow runs every entry of kind k on actor immediately, up to its first
// suspension.
func FireNow[T any](e *Engine, k TriggerKind[T], actor ecs.ActorID, extras Extras) bool {
	t := lookupTable(e, k)
	if t == nil {
		return false
	}
	entries, ok := t.entries.Get(actor)
	if !ok || len(entries) == 0 {
		return false
	}
	entries = append([]TriggerEntry[T](nil), entries...)
	for _, entry := range entries {
		e.Run(actor, entry.Response, extras)
	}
	return true
}

// FireAllIf runs FireIf for every actor holding kind k. Enablement is not
// checked.
func FireAllIf[T any](e *Engine, k TriggerKind[T], extras Extras, pred func(ecs.ActorID, *T) bool) bool {
	t := lookupTable(e, k)
	if t == nil {
		return false
	}
	fired := false
	for _, actor := range t.entries.Actors() {
		var p func(*T) bool
		if pred != nil {
			p = func(trigger *T) bool { return pred(actor, trigger) }
		}
		if FireIf(e, k, actor, extras, p) {
			fired = true
		}
	}
	return fired
}

// FireAllEnabled fires kind k on every actor whose components in requires are
// all enabled.
func FireAllEnabled[T any](e *Engine, k TriggerKind[T], extras Extras, requires ...EnabledChecker) bool {
	return FireAllIf(e, k, extras, func(actor ecs.ActorID, _ *T) bool {
		for _, r := range requires {
			if !r.IsComponentEnabled(actor) {
				return false
			}
		}
		return true
	})
}

func HasTrigger[T any](e *Engine, k TriggerKind[T], actor ecs.ActorID) bool {
	t := lookupTable(e, k)
	return t != nil && t.entries.Has(actor)
}

// ForEachTrigger visits every entry of kind k.
func ForEachTrigger[T any](e *Engine, k TriggerKind[T], fn func(actor ecs.ActorID, trigger *T)) {
	t := lookupTable(e, k)
	if t == nil {
		return
	}
	for _, actor := range t.entries.Actors() {
		entries, _ := t.entries.Get(actor)
		for i := range entries {
			fn(actor, &entries[i].Trigger)
		}
	}
}

// ClearTriggers drops every entry of kind k.
func ClearTriggers[T any](e *Engine, k TriggerKind[T]) {
	if t := lookupTable(e, k); t != nil {
		t.entries.Clear()
	}
}

func RemoveTrigger[T any](e *Engine, k TriggerKind[T], actor ecs.ActorID) {
	if t := lookupTable(e, k); t != nil {
		t.entries.Remove(actor)
	}
}

// RemoveActorTriggers drops all trigger entries of every kind for actor.
func (e *Engine) RemoveActorTriggers(actor ecs.ActorID) {
	if e == nil {
		return
	}
	for _, t := range e.triggers {
		if t != nil {
			t.removeActor(actor)
		}
	}
}
