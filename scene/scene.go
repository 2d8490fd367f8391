package scene

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/config"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
)

var ErrNoSuchActor = errors.New("scene: no such actor")

// TonePlayer plays short synthesized notes for the play sound response.
type TonePlayer interface {
	PlayTone(freq, seconds, volume float64)
}

type Options struct {
	Physics config.PhysicsConfig
	Clock   config.ClockConfig
	Rand    *rand.Rand
	Tones   TonePlayer
}

func DefaultOptions() Options {
	cfg := config.Default()
	return Options{Physics: cfg.Physics, Clock: cfg.Clock}
}

// Transition is a request to leave the scene. The host decides what to do
// with it.
type Transition struct {
	Restart bool
	CardID  string
	Title   string
}

type drawEntry struct {
	actor ecs.ActorID
	order float64
}

// Scene owns the actors of one card and runs them frame by frame.
type Scene struct {
	actors    *ecs.Actors
	behaviors *Behaviors
	physics   *physics.World
	clock     *clock.Clock
	variables *Variables
	library   *Library
	gesture   *Gesture
	camera    Camera
	follow    ecs.ActorID
	rng       *rand.Rand
	tones     TonePlayer

	audioClock  bool
	gravityY    float64
	stepDt      float64
	maxSubSteps int
	accum       float64

	performTime float64
	frame       int

	draw       []drawEntry
	drawIndex  map[ecs.ActorID]int
	needSort   bool
	destroying []ecs.ActorID
	marked     map[ecs.ActorID]struct{}
	parents    map[ecs.ActorID]string

	transition *Transition
}

func New(opts Options) *Scene {
	if opts.Physics.StepHz <= 0 {
		opts.Physics.StepHz = 120
	}
	if opts.Physics.MaxSubSteps <= 0 {
		opts.Physics.MaxSubSteps = 8
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	s := &Scene{
		actors:      ecs.NewActors(),
		physics:     physics.NewWorld(physics.Options{Iterations: opts.Physics.Iterations}),
		clock:       clock.New(opts.Clock.Tempo, opts.Clock.BeatsPerBar, opts.Clock.StepsPerBeat),
		library:     newLibrary(),
		gesture:     &Gesture{},
		camera:      Camera{ViewWidth: defaultViewWidth},
		rng:         rng,
		tones:       opts.Tones,
		audioClock:  opts.Clock.AudioDriven,
		gravityY:    opts.Physics.GravityY,
		stepDt:      1 / opts.Physics.StepHz,
		maxSubSteps: opts.Physics.MaxSubSteps,
		drawIndex:   make(map[ecs.ActorID]int),
		marked:      make(map[ecs.ActorID]struct{}),
		parents:     make(map[ecs.ActorID]string),
	}
	s.variables = newVariables(s)
	s.behaviors = newBehaviors(s)
	s.behaviors.Rules.initEngine()
	s.physics.SetContactListener(s)
	s.clock.SetListener(s)
	return s
}

func (s *Scene) Behaviors() *Behaviors   { return s.behaviors }
func (s *Scene) Physics() *physics.World { return s.physics }
func (s *Scene) Clock() *clock.Clock     { return s.clock }
func (s *Scene) Variables() *Variables   { return s.variables }
func (s *Scene) Library() *Library       { return s.library }
func (s *Scene) Gesture() *Gesture       { return s.gesture }
func (s *Scene) Camera() Camera          { return s.camera }
func (s *Scene) Rand() *rand.Rand        { return s.rng }
func (s *Scene) PerformTime() float64    { return s.performTime }
func (s *Scene) Frame() int              { return s.frame }
func (s *Scene) Engine() *rules.Engine   { return s.behaviors.Rules.engine }

// ActorDesc describes an actor to add.
type ActorDesc struct {
	// Components maps behavior names to component data. May be nil.
	Components *serial.Reader
	// ParentEntryID names a library entry whose components fill in anything
	// Components leaves out.
	ParentEntryID string
	// DrawOrder places the actor; negative puts it in front of everything.
	DrawOrder float64
	Position  *physics.Point
}

// AddActor creates an actor, then adds, reads and enables its components in
// registration order.
func (s *Scene) AddActor(desc ActorDesc) ecs.ActorID {
	a := s.actors.Create()
	s.insertDrawOrder(a, desc.DrawOrder)

	var parent *serial.Reader
	if desc.ParentEntryID != "" {
		s.parents[a] = desc.ParentEntryID
		if e := s.library.Get(desc.ParentEntryID); e != nil {
			parent = e.Components()
		} else {
			logger.Log.WithField("entry", desc.ParentEntryID).Debug("add actor: no such library entry")
		}
	}

	type pending struct {
		b Behavior
		r *serial.Reader
	}
	var added []pending
	s.behaviors.ForEach(func(b Behavior) {
		own, ok := desc.Components.Obj(b.Name())
		inherited, iok := parent.Obj(b.Name())
		if !ok && !iok {
			return
		}
		r := own
		if !ok {
			r = inherited
		} else if iok {
			r = own.WithFallback(inherited)
		}
		b.AddComponent(a)
		added = append(added, pending{b: b, r: r})
	})
	for _, p := range added {
		p.b.ReadComponent(a, p.r)
	}
	if desc.Position != nil && s.behaviors.Body.HasComponent(a) {
		c := s.behaviors.Body.Get(a)
		c.X, c.Y = desc.Position.X, desc.Position.Y
	}
	for _, p := range added {
		if !p.r.Bool("disabled", false) {
			p.b.EnableComponent(a)
		}
	}
	return a
}

// RemoveActor tears an actor down immediately.
func (s *Scene) RemoveActor(a ecs.ActorID) {
	if !s.HasActor(a) {
		logger.Log.WithField("actor", a).Debug("remove actor: no such actor")
		return
	}
	s.behaviors.ForEach(func(b Behavior) { b.preRemoveActor(a) })
	s.behaviors.ForEach(func(b Behavior) { b.RemoveComponent(a) })
	s.Engine().RemoveActorTriggers(a)
	if s.follow == a {
		s.follow = ecs.NullActor
	}
	s.removeDrawOrder(a)
	delete(s.parents, a)
	s.actors.Destroy(a)
}

// MarkForDestroy removes a at the end of this frame's rules. It reports
// false if a is gone or already marked.
func (s *Scene) MarkForDestroy(a ecs.ActorID) bool {
	if !s.HasActor(a) {
		return false
	}
	if _, ok := s.marked[a]; ok {
		return false
	}
	s.marked[a] = struct{}{}
	s.destroying = append(s.destroying, a)
	return true
}

func (s *Scene) flushDestroyed() {
	for len(s.destroying) > 0 {
		pending := s.destroying
		s.destroying = nil
		for _, a := range pending {
			if s.HasActor(a) {
				s.RemoveActor(a)
			}
			delete(s.marked, a)
		}
	}
}

func (s *Scene) HasActor(a ecs.ActorID) bool { return s.actors.Alive(a) }

// ParentEntryID names the library entry a was created from.
func (s *Scene) ParentEntryID(a ecs.ActorID) string { return s.parents[a] }
func (s *Scene) NumActors() int                     { return s.actors.Len() }

// IndexActor returns the i-th actor in enumeration order.
func (s *Scene) IndexActor(i int) ecs.ActorID { return s.actors.Index(i) }

func (s *Scene) ForEachActor(fn func(ecs.ActorID)) { s.actors.Each(fn) }

// ActorTransform reads an actor's body position and angle in radians.
func (s *Scene) ActorTransform(a ecs.ActorID) (x, y, angle float64, ok bool) {
	return s.behaviors.Body.transform(a)
}

func (s *Scene) EachActorWithTag(tag string, fn func(ecs.ActorID)) {
	s.behaviors.Tags.EachActorWithTag(tag, fn)
}

func (s *Scene) IndexActorWithTag(tag string, i int) ecs.ActorID {
	return s.behaviors.Tags.IndexActorWithTag(tag, i)
}

// Draw order.

func (s *Scene) maxDrawOrder() float64 {
	m := -1.0
	for _, e := range s.draw {
		m = math.Max(m, e.order)
	}
	return m
}

func (s *Scene) minDrawOrder() float64 {
	m := 0.0
	for _, e := range s.draw {
		m = math.Min(m, e.order)
	}
	return m
}

func (s *Scene) insertDrawOrder(a ecs.ActorID, order float64) {
	if order < 0 {
		order = s.maxDrawOrder() + 1
	}
	s.drawIndex[a] = len(s.draw)
	s.draw = append(s.draw, drawEntry{actor: a, order: order})
	s.needSort = true
}

func (s *Scene) removeDrawOrder(a ecs.ActorID) {
	i, ok := s.drawIndex[a]
	if !ok {
		return
	}
	s.draw = append(s.draw[:i], s.draw[i+1:]...)
	delete(s.drawIndex, a)
	for j := i; j < len(s.draw); j++ {
		s.drawIndex[s.draw[j].actor] = j
	}
}

func (s *Scene) DrawOrder(a ecs.ActorID) (float64, bool) {
	s.EnsureDrawOrderSort()
	i, ok := s.drawIndex[a]
	if !ok {
		return 0, false
	}
	return s.draw[i].order, true
}

func (s *Scene) SetActorDrawOrder(a ecs.ActorID, order float64) {
	i, ok := s.drawIndex[a]
	if !ok {
		return
	}
	s.draw[i].order = order
	s.needSort = true
}

// MoveActorInFront places a directly above other.
func (s *Scene) MoveActorInFront(a, other ecs.ActorID) {
	if o, ok := s.drawIndex[other]; ok {
		s.SetActorDrawOrder(a, s.draw[o].order+0.5)
	}
}

// MoveActorBehind places a directly below other.
func (s *Scene) MoveActorBehind(a, other ecs.ActorID) {
	if o, ok := s.drawIndex[other]; ok {
		s.SetActorDrawOrder(a, s.draw[o].order-0.5)
	}
}

func (s *Scene) MoveActorToFront(a ecs.ActorID) { s.SetActorDrawOrder(a, s.maxDrawOrder()+1) }
func (s *Scene) MoveActorToBack(a ecs.ActorID)  { s.SetActorDrawOrder(a, s.minDrawOrder()-1) }

// EnsureDrawOrderSort sorts pending draw order changes and compacts orders
// to 0..n-1.
func (s *Scene) EnsureDrawOrderSort() {
	if !s.needSort {
		return
	}
	s.needSort = false
	sort.SliceStable(s.draw, func(i, j int) bool { return s.draw[i].order < s.draw[j].order })
	for i := range s.draw {
		s.draw[i].order = float64(i)
		s.drawIndex[s.draw[i].actor] = i
	}
}

// ForEachActorByDrawOrder visits actors back to front.
func (s *Scene) ForEachActorByDrawOrder(fn func(ecs.ActorID)) {
	s.EnsureDrawOrderSort()
	actors := make([]ecs.ActorID, len(s.draw))
	for i, e := range s.draw {
		actors[i] = e.actor
	}
	for _, a := range actors {
		if s.HasActor(a) {
			fn(a)
		}
	}
}

// Camera.

// FollowWithCamera keeps the camera centered on a.
func (s *Scene) FollowWithCamera(a ecs.ActorID) { s.follow = a }

func (s *Scene) SetCamera(x, y float64) {
	s.moveCamera(x, y)
}

func (s *Scene) moveCamera(x, y float64) {
	dx, dy := x-s.camera.X, y-s.camera.Y
	if dx == 0 && dy == 0 {
		return
	}
	s.camera.X, s.camera.Y = x, y
	for _, l := range s.behaviors.cameraListeners {
		l.HandleUpdateCamera(dx, dy)
	}
}

func (s *Scene) updateCamera() {
	if !s.follow.Valid() {
		return
	}
	x, y, _, ok := s.ActorTransform(s.follow)
	if !ok {
		return
	}
	s.moveCamera(x, y)
}

// Transitions.

func (s *Scene) RequestTransition(t Transition) {
	if s.transition == nil {
		s.transition = &t
	}
}

// TakeTransition returns and clears a pending transition request.
func (s *Scene) TakeTransition() (Transition, bool) {
	if s.transition == nil {
		return Transition{}, false
	}
	t := *s.transition
	s.transition = nil
	return t, true
}

// Physics contacts.

func (s *Scene) BeginContact(a, b ecs.ActorID) {
	for _, l := range s.behaviors.contactBeginners {
		l.HandleBeginPhysicsContact(a, b)
	}
}

func (s *Scene) EndContact(a, b ecs.ActorID) {
	for _, l := range s.behaviors.contactEnders {
		l.HandleEndPhysicsContact(a, b)
	}
}

// FireBeatTriggers forwards clock boundaries to the rules.
func (s *Scene) FireBeatTriggers(unit clock.Unit, index int) {
	s.behaviors.Rules.fireBeatTriggers(unit, index)
}

func (s *Scene) playTone(freq, seconds, volume float64) {
	if s.tones == nil {
		logger.Log.Debug("play sound: no audio output")
		return
	}
	s.tones.PlayTone(freq, seconds, volume)
}

// Update advances the scene by dt seconds.
func (s *Scene) Update(dt float64) {
	if dt < 0 {
		dt = 0
	}
	s.performTime += dt
	if !s.audioClock {
		s.clock.Update(dt)
	}
	s.clock.Frame()

	s.gesture.update()

	s.accum += dt
	steps := 0
	for s.accum >= s.stepDt && steps < s.maxSubSteps {
		s.physics.Step(s.stepDt)
		s.accum -= s.stepDt
		steps++
	}
	if steps == s.maxSubSteps {
		s.accum = 0
	}

	for _, p := range s.behaviors.performers {
		p.HandlePerform(dt)
	}

	s.updateCamera()
	s.variables.perform()
	s.frame++
}

// Draw renders every actor back to front.
func (s *Scene) Draw(canvas Canvas) {
	canvas.SetView(s.camera)
	s.ForEachActorByDrawOrder(func(a ecs.ActorID) {
		for _, d := range s.behaviors.drawers {
			d.HandleDrawComponent(a, canvas)
		}
	})
	for _, o := range s.behaviors.overlays {
		o.HandleDrawOverlay(canvas)
	}
}
