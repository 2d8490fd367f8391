package scene

import (
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/rules"
)

// Behavior ids as stored in persisted rules.
const (
	BodyID           = 1
	SolidID          = 2
	MovingID         = 3
	FallingID        = 4
	BouncyID         = 5
	FrictionID       = 6
	RotatingMotionID = 7
	SlowdownID       = 8
	SpeedLimitID     = 9
	SlidingID        = 10
	DragID           = 11
	AnalogStickID    = 12
	SlingID          = 13
	RulesID          = rules.CoreBehaviorID
	TagsID           = 17
	CounterID        = 18
	TextID           = 19
	DrawingID        = 20
)

// Behaviors holds one instance of every behavior kind. Field order is the
// registration order used for every broadcast; Body comes first because the
// motion behaviors need its physics body.
type Behaviors struct {
	Body           *BodyBehavior
	Solid          *SolidBehavior
	Moving         *MovingBehavior
	Falling        *FallingBehavior
	Bouncy         *BouncyBehavior
	Friction       *FrictionBehavior
	RotatingMotion *RotatingMotionBehavior
	Slowdown       *SlowdownBehavior
	SpeedLimit     *SpeedLimitBehavior
	Sliding        *SlidingBehavior
	Drag           *DragBehavior
	AnalogStick    *AnalogStickBehavior
	Sling          *SlingBehavior
	Rules          *RulesBehavior
	Tags           *TagsBehavior
	Counter        *CounterBehavior
	Text           *TextBehavior
	Drawing        *DrawingBehavior

	all    []Behavior
	byName map[string]Behavior
	byID   map[int]Behavior

	performers       []Performer
	drawers          []Drawer
	overlays         []OverlayDrawer
	contactBeginners []ContactBeginner
	contactEnders    []ContactEnder
	cameraListeners  []CameraListener
	fixtureListeners []FixtureListener
}

func newBehaviors(s *Scene) *Behaviors {
	b := &Behaviors{
		Body:           newBodyBehavior(s),
		Solid:          newSolidBehavior(s),
		Moving:         newMovingBehavior(s),
		Falling:        newFallingBehavior(s),
		Bouncy:         newBouncyBehavior(s),
		Friction:       newFrictionBehavior(s),
		RotatingMotion: newRotatingMotionBehavior(s),
		Slowdown:       newSlowdownBehavior(s),
		SpeedLimit:     newSpeedLimitBehavior(s),
		Sliding:        newSlidingBehavior(s),
		Drag:           newDragBehavior(s),
		AnalogStick:    newAnalogStickBehavior(s),
		Sling:          newSlingBehavior(s),
		Rules:          newRulesBehavior(s),
		Tags:           newTagsBehavior(s),
		Counter:        newCounterBehavior(s),
		Text:           newTextBehavior(s),
		Drawing:        newDrawingBehavior(s),
		byName:         make(map[string]Behavior),
		byID:           make(map[int]Behavior),
	}
	b.all = []Behavior{
		b.Body, b.Solid, b.Moving, b.Falling, b.Bouncy, b.Friction, b.RotatingMotion,
		b.Slowdown, b.SpeedLimit, b.Sliding, b.Drag, b.AnalogStick, b.Sling,
		b.Rules, b.Tags, b.Counter, b.Text, b.Drawing,
	}
	for _, beh := range b.all {
		b.byName[strings.ToLower(beh.Name())] = beh
		b.byID[beh.ID()] = beh
		if p, ok := beh.(Performer); ok {
			b.performers = append(b.performers, p)
		}
		if d, ok := beh.(Drawer); ok {
			b.drawers = append(b.drawers, d)
		}
		if o, ok := beh.(OverlayDrawer); ok {
			b.overlays = append(b.overlays, o)
		}
		if c, ok := beh.(ContactBeginner); ok {
			b.contactBeginners = append(b.contactBeginners, c)
		}
		if c, ok := beh.(ContactEnder); ok {
			b.contactEnders = append(b.contactEnders, c)
		}
		if c, ok := beh.(CameraListener); ok {
			b.cameraListeners = append(b.cameraListeners, c)
		}
		if f, ok := beh.(FixtureListener); ok {
			b.fixtureListeners = append(b.fixtureListeners, f)
		}
	}
	return b
}

// registerRules lets every behavior add its rule nodes to c.
func (b *Behaviors) registerRules(c *rules.Catalog) {
	for _, beh := range b.all {
		if r, ok := beh.(ruleRegistrar); ok {
			r.registerRules(c)
		}
	}
}

// ByName looks a behavior up case-insensitively.
func (b *Behaviors) ByName(name string) Behavior {
	return b.byName[strings.ToLower(name)]
}

func (b *Behaviors) ByID(id int) Behavior {
	return b.byID[id]
}

// ForEach visits behaviors in registration order.
func (b *Behaviors) ForEach(fn func(Behavior)) {
	for _, beh := range b.all {
		fn(beh)
	}
}

func (b *Behaviors) Len() int { return len(b.all) }

// Performers lists the behaviors with a per-frame hook.
func (b *Behaviors) Performers() []Performer { return b.performers }

func (b *Behaviors) updateFixtures(a ecs.ActorID, body *cp.Body) {
	for _, l := range b.fixtureListeners {
		l.HandleUpdateComponentFixtures(a, body)
	}
}
