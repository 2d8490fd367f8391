package sound

import (
	"math"
	"testing"
	"time"

	"github.com/milk9111/rulesplayer/clock"
)

func TestStreamAdvancesClocks(t *testing.T) {
	s := New(1000)
	c := clock.New(120, 4, 4)
	s.AddClock(c)
	s.AddClock(c)

	buf := make([][2]float64, 500)
	s.Stream(buf)
	s.Stream(buf)

	// 120 bpm at 4 steps per beat is 8 steps per second.
	if got := c.Time(); math.Abs(got-8) > 1e-9 {
		t.Fatalf("clock time = %v steps, want 8", got)
	}

	s.RemoveAllClocks()
	s.Stream(buf)
	if got := c.Time(); math.Abs(got-8) > 1e-9 {
		t.Fatalf("removed clock advanced to %v", got)
	}
}

func TestPlayTone(t *testing.T) {
	tests := []struct {
		name    string
		freq    float64
		volume  float64
		audible bool
	}{
		{name: "half volume", freq: 100, volume: 0.5, audible: true},
		{name: "muted", freq: 100, volume: 0, audible: false},
		{name: "above nyquist", freq: 900, volume: 1, audible: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(1000)
			s.PlayTone(tt.freq, 0.1, tt.volume)

			buf := make([][2]float64, 100)
			n, ok := s.Stream(buf)
			if n != len(buf) || !ok {
				t.Fatalf("Stream = %d, %v", n, ok)
			}
			peak := 0.0
			for _, smp := range buf {
				peak = math.Max(peak, math.Abs(smp[0]))
			}
			if tt.audible && (peak == 0 || peak > tt.volume+1e-9) {
				t.Fatalf("peak = %v, want in (0, %v]", peak, tt.volume)
			}
			if !tt.audible && peak != 0 {
				t.Fatalf("peak = %v, want silence", peak)
			}

			s.Stream(buf)
			for _, smp := range buf {
				if smp != [2]float64{} {
					t.Fatalf("tone kept playing past its duration")
				}
			}
		})
	}
}

func TestTickerStops(t *testing.T) {
	s := New(1000)
	c := clock.New(120, 4, 4)
	s.AddClock(c)
	s.StartTicker(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	at := c.Time()
	if at <= 0 {
		t.Fatalf("ticker did not advance the clock")
	}
	time.Sleep(5 * time.Millisecond)
	if c.Time() != at {
		t.Fatalf("clock advanced after Stop")
	}
	s.Stop()
}
