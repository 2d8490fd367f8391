package clock

import (
	"math"
	"sync"
	"testing"
)

type firing struct {
	unit  Unit
	index int
}

type recorder struct {
	fired []firing
}

func (r *recorder) FireBeatTriggers(unit Unit, index int) {
	r.fired = append(r.fired, firing{unit, index})
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFrameFiresEachCrossingOnce(t *testing.T) {
	c := New(120, 4, 4) // 8 steps per second
	r := &recorder{}
	c.SetListener(r)

	c.Frame()
	if len(r.fired) != 3 {
		t.Fatalf("expected zero boundaries after reset, got %v", r.fired)
	}
	r.fired = nil

	c.Frame()
	if len(r.fired) != 0 {
		t.Fatalf("crossings must be cleared after firing, got %v", r.fired)
	}

	c.Update(0.5) // 4 steps = 1 beat
	c.Frame()
	want := []firing{{Step, 1}, {Step, 2}, {Step, 3}, {Step, 4}, {Beat, 1}}
	if len(r.fired) != len(want) {
		t.Fatalf("expected %v, got %v", want, r.fired)
	}
	for i := range want {
		if r.fired[i] != want[i] {
			t.Fatalf("firing %d: expected %v, got %v", i, want[i], r.fired[i])
		}
	}
	if c.TotalBeatsElapsed() != 1 || c.BeatIndexInBar() != 1 {
		t.Fatalf("beats=%d index=%d", c.TotalBeatsElapsed(), c.BeatIndexInBar())
	}
}

func TestFrameDeliversEveryCrossedIndex(t *testing.T) {
	c := New(120, 4, 4) // 2 beats per second
	r := &recorder{}
	c.SetListener(r)
	c.Frame()
	r.fired = nil

	c.Update(2.6) // 5 beats, 1 bar
	c.Frame()
	var beats, bars []int
	for _, f := range r.fired {
		switch f.unit {
		case Beat:
			beats = append(beats, f.index)
		case Bar:
			bars = append(bars, f.index)
		}
	}
	if len(beats) != 5 {
		t.Fatalf("expected beats 1..5, got %v", beats)
	}
	for i, b := range beats {
		if b != i+1 {
			t.Fatalf("expected beats 1..5, got %v", beats)
		}
	}
	if len(bars) != 1 || bars[0] != 1 {
		t.Fatalf("expected bar 1, got %v", bars)
	}
}

func TestFrameCatchUpIsBounded(t *testing.T) {
	c := New(120, 4, 4)
	r := &recorder{}
	c.SetListener(r)
	c.Frame()
	r.fired = nil

	c.Update(60) // 480 steps
	c.Frame()
	steps := 0
	last := -1
	for _, f := range r.fired {
		if f.unit == Step {
			steps++
			last = f.index
		}
	}
	if steps != maxCatchUp || last != 480 {
		t.Fatalf("expected %d steps ending at 480, got %d ending at %d", maxCatchUp, steps, last)
	}
}

func TestTimeUntilNext(t *testing.T) {
	cases := []struct {
		name            string
		advance         float64 // seconds
		unit            Unit
		count           int
		allowRecentPast bool
		want            float64 // steps
	}{
		{"next_beat_from_mid_beat", 0.25, Beat, 1, false, 2},
		{"second_beat", 0.25, Beat, 2, false, 6},
		{"next_bar", 0.25, Bar, 1, false, 14},
		{"exact_boundary_without_recent_past", 0.5, Beat, 1, false, 4},
		{"exact_boundary_with_recent_past", 0.5, Beat, 1, true, 0},
		{"recent_past_counts_as_first", 0.5, Beat, 2, true, 4},
		{"just_after_beat", 0.5 + 0.05/8, Beat, 1, true, -0.05},
		{"past_epsilon_waits", 0.5 + 0.2/8, Beat, 1, true, 3.8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(120, 4, 4)
			c.Update(tc.advance)
			got := c.TimeUntilNext(tc.unit, tc.count, tc.allowRecentPast)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("expected %v steps, got %v", tc.want, got)
			}
		})
	}
}

func TestRecentPastEpsilonWiderAfterReset(t *testing.T) {
	c := New(120, 4, 4)
	c.Update(0.3 / 8) // 0.3 steps into the first beat
	if got := c.TimeUntilNext(Beat, 1, true); !approx(got, -0.3) {
		t.Fatalf("expected the reset boundary to count, got %v", got)
	}

	c.Update(1.0) // 8.3 steps, two beats later
	if got := c.TimeUntilNext(Beat, 1, true); !approx(got, 3.7) {
		t.Fatalf("expected normal epsilon after the first beat, got %v", got)
	}
}

func TestConversions(t *testing.T) {
	c := New(60, 4, 2) // 2 steps per second
	if got := c.SecondsToSteps(1.5); !approx(got, 3) {
		t.Fatalf("SecondsToSteps = %v", got)
	}
	if got := c.StepsToSeconds(3); !approx(got, 1.5) {
		t.Fatalf("StepsToSeconds = %v", got)
	}
	c.SetTempo(0)
	if c.Tempo() != 1 {
		t.Fatalf("tempo should clamp to 1, got %v", c.Tempo())
	}
}

func TestUpdateFromAnotherGoroutine(t *testing.T) {
	c := New(120, 4, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Update(0.01)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		c.Frame()
		_ = c.TimeUntilNext(Beat, 1, true)
	}
	wg.Wait()
	if got := c.Time(); math.Abs(got-32) > 1e-6 {
		t.Fatalf("expected 32 steps, got %v", got)
	}
}
