package scene

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
	"github.com/sirupsen/logrus"
)

// Behavior is the type-erased face of one behavior kind.
type Behavior interface {
	Name() string
	ID() int

	HasComponent(a ecs.ActorID) bool
	AddComponent(a ecs.ActorID)
	RemoveComponent(a ecs.ActorID)
	EnableComponent(a ecs.ActorID)
	DisableComponent(a ecs.ActorID)
	IsComponentEnabled(a ecs.ActorID) bool
	HasAnyEnabledComponent() bool

	GetProperty(a ecs.ActorID, prop string) rules.Value
	SetProperty(a ecs.ActorID, prop string, v rules.Value, relative bool)
	PropertyNames() []string

	ReadComponent(a ecs.ActorID, r *serial.Reader)
	WriteComponent(a ecs.ActorID, w *serial.Writer)

	preRemoveActor(a ecs.ActorID)
}

// Broadcast capabilities. The registry collects implementers once.
type (
	Performer interface {
		HandlePerform(dt float64)
	}
	Drawer interface {
		HandleDrawComponent(a ecs.ActorID, canvas Canvas)
	}
	// OverlayDrawer draws control feedback above every actor.
	OverlayDrawer interface {
		HandleDrawOverlay(canvas Canvas)
	}
	ContactBeginner interface {
		HandleBeginPhysicsContact(a, b ecs.ActorID)
	}
	ContactEnder interface {
		HandleEndPhysicsContact(a, b ecs.ActorID)
	}
	CameraListener interface {
		HandleUpdateCamera(dx, dy float64)
	}
	FixtureListener interface {
		HandleUpdateComponentFixtures(a ecs.ActorID, body *cp.Body)
	}
	ruleRegistrar interface {
		registerRules(c *rules.Catalog)
	}
)

// Per-component hooks, discovered on the concrete behavior at construction.
type (
	addHandler[T any] interface {
		handleAddComponent(a ecs.ActorID, c T)
	}
	enableHandler[T any] interface {
		handleEnableComponent(a ecs.ActorID, c T)
	}
	disableHandler[T any] interface {
		handleDisableComponent(a ecs.ActorID, c T, removeActor bool)
	}
	preRemoveHandler[T any] interface {
		handlePreRemoveActor(a ecs.ActorID, c T)
	}
	readHandler[T any] interface {
		handleReadComponent(a ecs.ActorID, c T, r *serial.Reader)
	}
	writeHandler[T any] interface {
		handleWriteComponent(a ecs.ActorID, c T, w *serial.Writer)
	}
	propertyGetter[T any] interface {
		handleGetProperty(a ecs.ActorID, c T, prop string) (rules.Value, bool)
	}
	propertySetter[T any] interface {
		handleSetProperty(a ecs.ActorID, c T, prop string, v rules.Value, relative bool) bool
	}
)

type hooks[T any] struct {
	add       func(ecs.ActorID, T)
	enable    func(ecs.ActorID, T)
	disable   func(ecs.ActorID, T, bool)
	preRemove func(ecs.ActorID, T)
	read      func(ecs.ActorID, T, *serial.Reader)
	write     func(ecs.ActorID, T, *serial.Writer)
	get       func(ecs.ActorID, T, string) (rules.Value, bool)
	set       func(ecs.ActorID, T, string, rules.Value, bool) bool
}

// base implements Behavior over a component store. Concrete behaviors embed
// it and call init with themselves.
type base[T ecs.Component] struct {
	name  string
	id    int
	scene *Scene
	store *ecs.Store[T]
	props *propTable
	hooks hooks[T]
}

func (b *base[T]) init(s *Scene, name string, id int, newFunc func() T, owner any) {
	b.name = name
	b.id = id
	b.scene = s
	b.store = ecs.NewStore(newFunc)
	b.props = propsFor(newFunc())

	if h, ok := owner.(addHandler[T]); ok {
		b.hooks.add = h.handleAddComponent
	}
	if h, ok := owner.(enableHandler[T]); ok {
		b.hooks.enable = h.handleEnableComponent
	}
	if h, ok := owner.(disableHandler[T]); ok {
		b.hooks.disable = h.handleDisableComponent
	}
	if h, ok := owner.(preRemoveHandler[T]); ok {
		b.hooks.preRemove = h.handlePreRemoveActor
	}
	if h, ok := owner.(readHandler[T]); ok {
		b.hooks.read = h.handleReadComponent
	}
	if h, ok := owner.(writeHandler[T]); ok {
		b.hooks.write = h.handleWriteComponent
	}
	if h, ok := owner.(propertyGetter[T]); ok {
		b.hooks.get = h.handleGetProperty
	}
	if h, ok := owner.(propertySetter[T]); ok {
		b.hooks.set = h.handleSetProperty
	}
}

func (b *base[T]) log(a ecs.ActorID) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{"behavior": b.name, "actor": a})
}

func (b *base[T]) Name() string { return b.name }
func (b *base[T]) ID() int      { return b.id }

// Store exposes the component store for typed iteration.
func (b *base[T]) Store() *ecs.Store[T] { return b.store }

func (b *base[T]) HasComponent(a ecs.ActorID) bool { return b.store.Has(a) }

// Get returns the actor's component, or nil.
func (b *base[T]) Get(a ecs.ActorID) T { return b.store.Get(a) }

// GetEnabled returns the actor's component if it is enabled, or nil.
func (b *base[T]) GetEnabled(a ecs.ActorID) T { return b.store.GetEnabled(a) }

func (b *base[T]) IsComponentEnabled(a ecs.ActorID) bool { return b.store.IsEnabled(a) }
func (b *base[T]) HasAnyEnabledComponent() bool          { return b.store.HasAnyEnabled() }

// AddComponent creates a disabled component. Adding twice keeps the first.
func (b *base[T]) AddComponent(a ecs.ActorID) {
	if !b.scene.HasActor(a) {
		b.log(a).Debug("add component: no such actor")
		return
	}
	c, created := b.store.Add(a)
	if !created {
		b.log(a).Debug("add component: already present")
		return
	}
	if b.hooks.add != nil {
		b.hooks.add(a, c)
	}
}

// RemoveComponent disables the component as part of removal and drops it.
func (b *base[T]) RemoveComponent(a ecs.ActorID) {
	if !b.store.Has(a) {
		return
	}
	b.disable(a, true)
	b.store.Remove(a)
}

func (b *base[T]) EnableComponent(a ecs.ActorID) {
	c, changed := b.store.Enable(a)
	if !changed {
		return
	}
	if b.hooks.enable != nil {
		b.hooks.enable(a, c)
	}
}

func (b *base[T]) DisableComponent(a ecs.ActorID) {
	b.disable(a, false)
}

func (b *base[T]) disable(a ecs.ActorID, removeActor bool) {
	c, changed := b.store.Disable(a)
	if !changed {
		return
	}
	if b.hooks.disable != nil {
		b.hooks.disable(a, c, removeActor)
	}
}

func (b *base[T]) preRemoveActor(a ecs.ActorID) {
	if b.hooks.preRemove == nil {
		return
	}
	if c, ok := b.lookup(a); ok {
		b.hooks.preRemove(a, c)
	}
}

func (b *base[T]) lookup(a ecs.ActorID) (T, bool) {
	c := b.store.Get(a)
	return c, b.store.Has(a)
}

func (b *base[T]) GetProperty(a ecs.ActorID, prop string) rules.Value {
	c, ok := b.lookup(a)
	if !ok {
		b.log(a).WithField("prop", prop).Debug("get property: no component")
		return rules.Nil
	}
	if b.hooks.get != nil {
		if v, ok := b.hooks.get(a, c, prop); ok {
			return v
		}
	}
	v, ok := b.props.get(c, prop)
	if !ok {
		b.log(a).WithField("prop", prop).Debug("get property: unknown")
	}
	return v
}

// SetProperty assigns prop. With relative set, numeric values are added to
// the current value.
func (b *base[T]) SetProperty(a ecs.ActorID, prop string, v rules.Value, relative bool) {
	c, ok := b.lookup(a)
	if !ok {
		b.log(a).WithField("prop", prop).Debug("set property: no component")
		return
	}
	if b.hooks.set != nil && b.hooks.set(a, c, prop, v, relative) {
		return
	}
	if !b.props.set(c, prop, v, relative) {
		b.log(a).WithField("prop", prop).Debug("set property: unknown")
	}
}

func (b *base[T]) PropertyNames() []string { return b.props.names }

func (b *base[T]) ReadComponent(a ecs.ActorID, r *serial.Reader) {
	c, ok := b.lookup(a)
	if !ok {
		return
	}
	b.props.read(c, r)
	if b.hooks.read != nil {
		b.hooks.read(a, c, r)
	}
}

func (b *base[T]) WriteComponent(a ecs.ActorID, w *serial.Writer) {
	c, ok := b.lookup(a)
	if !ok {
		return
	}
	if !b.store.IsEnabled(a) {
		w.Bool("disabled", true)
	}
	b.props.write(c, w)
	if b.hooks.write != nil {
		b.hooks.write(a, c, w)
	}
}
