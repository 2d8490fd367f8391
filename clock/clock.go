package clock

import (
	"math"
	"sync"
)

// Unit is a musical quantization unit.
type Unit int

const (
	Step Unit = iota
	Beat
	Bar
)

func (u Unit) String() string {
	switch u {
	case Beat:
		return "beat"
	case Bar:
		return "bar"
	default:
		return "step"
	}
}

func ParseUnit(s string) (Unit, bool) {
	switch s {
	case "step", "steps":
		return Step, true
	case "beat", "beats":
		return Beat, true
	case "bar", "bars":
		return Bar, true
	}
	return Step, false
}

// BeatListener receives boundary crossings from Frame. index counts units
// elapsed since the last reset, starting at 0.
type BeatListener interface {
	FireBeatTriggers(unit Unit, index int)
}

// maxCatchUp bounds how many crossings of one unit a single Frame delivers
// after a long stall. Older ones are dropped.
const maxCatchUp = 64

const (
	recentPastEpsilon      = 0.1 // steps
	recentPastEpsilonReset = 0.5 // steps, during the first beat after a reset
)

// Clock converts elapsed time into steps, beats and bars. Update may run on
// a different goroutine than Frame; all state is guarded by mu.
type Clock struct {
	mu sync.Mutex

	tempo        float64
	beatsPerBar  int
	stepsPerBeat int

	time      float64 // steps since reset
	totals    [3]int
	pending   [3]int // first index of each unit not yet delivered
	listener  BeatListener
	lastReset float64
}

func New(tempo float64, beatsPerBar, stepsPerBeat int) *Clock {
	c := &Clock{
		tempo:        120,
		beatsPerBar:  4,
		stepsPerBeat: 4,
	}
	if tempo > 0 {
		c.tempo = tempo
	}
	if beatsPerBar > 0 {
		c.beatsPerBar = beatsPerBar
	}
	if stepsPerBeat > 0 {
		c.stepsPerBeat = stepsPerBeat
	}
	c.resetLocked()
	return c
}

func (c *Clock) SetListener(l BeatListener) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// Reset rewinds to time zero. The zero boundaries fire on the next Frame.
func (c *Clock) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Clock) resetLocked() {
	c.time = 0
	c.lastReset = 0
	c.totals = [3]int{}
	c.pending = [3]int{}
}

func (c *Clock) unitStepsLocked(u Unit) float64 {
	switch u {
	case Beat:
		return float64(c.stepsPerBeat)
	case Bar:
		return float64(c.stepsPerBeat * c.beatsPerBar)
	default:
		return 1
	}
}

func (c *Clock) stepsPerSecondLocked() float64 {
	return c.tempo * float64(c.stepsPerBeat) / 60
}

// Update advances the clock by dt seconds.
func (c *Clock) Update(dt float64) {
	if c == nil || dt <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time += dt * c.stepsPerSecondLocked()
	for u := Step; u <= Bar; u++ {
		if total := int(math.Floor(c.time / c.unitStepsLocked(u))); total > c.totals[u] {
			c.totals[u] = total
		}
	}
}

// Frame fires every boundary crossed since the previous Frame once, in
// order, so counting triggers see each index even across long frames. It
// must run on the goroutine that owns the rules.
func (c *Clock) Frame() {
	if c == nil {
		return
	}
	c.mu.Lock()
	from := c.pending
	to := c.totals
	listener := c.listener
	for u := range c.pending {
		c.pending[u] = to[u] + 1
	}
	c.mu.Unlock()

	if listener == nil {
		return
	}
	for u := Step; u <= Bar; u++ {
		for i := max(from[u], to[u]-maxCatchUp+1); i <= to[u]; i++ {
			listener.FireBeatTriggers(u, i)
		}
	}
}

// TimeUntilNext returns the steps until the count-th next boundary of unit.
// With allowRecentPast, a boundary that passed within a small epsilon counts
// as the first one and the result may be slightly negative.
func (c *Clock) TimeUntilNext(unit Unit, count int, allowRecentPast bool) float64 {
	if c == nil {
		return 0
	}
	if count < 1 {
		count = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	size := c.unitStepsLocked(unit)
	prev := math.Floor(c.time/size) * size
	since := c.time - prev
	if allowRecentPast {
		eps := recentPastEpsilon
		if c.time-c.lastReset < float64(c.stepsPerBeat) {
			eps = recentPastEpsilonReset
		}
		if since < eps {
			return float64(count-1)*size - since
		}
	}
	return prev + float64(count)*size - c.time
}

// Time returns steps elapsed since the last reset.
func (c *Clock) Time() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *Clock) Tempo() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// SetTempo changes beats per minute. Values outside [1, 400] are clamped.
func (c *Clock) SetTempo(tempo float64) {
	if c == nil || math.IsNaN(tempo) {
		return
	}
	c.mu.Lock()
	c.tempo = math.Min(math.Max(tempo, 1), 400)
	c.mu.Unlock()
}

func (c *Clock) BeatsPerBar() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatsPerBar
}

func (c *Clock) StepsPerBeat() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepsPerBeat
}

func (c *Clock) TotalStepsElapsed() int { return c.total(Step) }
func (c *Clock) TotalBeatsElapsed() int { return c.total(Beat) }
func (c *Clock) TotalBarsElapsed() int  { return c.total(Bar) }

func (c *Clock) total(u Unit) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[u]
}

// BeatIndexInBar is 0-based.
func (c *Clock) BeatIndexInBar() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[Beat] % c.beatsPerBar
}

// PerformTimeSinceBeat returns seconds since the last beat boundary.
func (c *Clock) PerformTimeSinceBeat() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	since := c.time - float64(c.totals[Beat]*c.stepsPerBeat)
	return since / c.stepsPerSecondLocked()
}

func (c *Clock) StepsToSeconds(steps float64) float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return steps / c.stepsPerSecondLocked()
}

func (c *Clock) SecondsToSteps(seconds float64) float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return seconds * c.stepsPerSecondLocked()
}

// UnitSteps returns the length of one unit in steps.
func (c *Clock) UnitSteps(u Unit) float64 {
	if c == nil {
		return 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unitStepsLocked(u)
}

// SetSignature changes bar and beat subdivision. Non-positive values are ignored.
func (c *Clock) SetSignature(beatsPerBar, stepsPerBeat int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if beatsPerBar > 0 {
		c.beatsPerBar = beatsPerBar
	}
	if stepsPerBeat > 0 {
		c.stepsPerBeat = stepsPerBeat
	}
}
