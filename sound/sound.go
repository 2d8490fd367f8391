// Package sound runs the audio thread. It drives the scene clocks from the
// sample count the device consumes and mixes short synthesized tones.
package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/logger"
)

const DefaultSampleRate = beep.SampleRate(44100)

// Sound is a beep.Streamer. Every Stream call advances the registered
// clocks by the duration of the samples it produced.
type Sound struct {
	mu     sync.Mutex
	sr     beep.SampleRate
	clocks []*clock.Clock
	mixer  *beep.Mixer

	stop chan struct{}
	done chan struct{}
}

func New(sr beep.SampleRate) *Sound {
	if sr <= 0 {
		sr = DefaultSampleRate
	}
	return &Sound{sr: sr, mixer: &beep.Mixer{}}
}

func (s *Sound) SampleRate() beep.SampleRate { return s.sr }

func (s *Sound) AddClock(c *clock.Clock) {
	if s == nil || c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clocks {
		if existing == c {
			return
		}
	}
	s.clocks = append(s.clocks, c)
}

func (s *Sound) RemoveAllClocks() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.clocks = nil
	s.mu.Unlock()
}

// PlayTone mixes a sine tone of freq Hz for seconds at volume in [0, 1].
func (s *Sound) PlayTone(freq, seconds, volume float64) {
	if s == nil || seconds <= 0 {
		return
	}
	tone, err := generators.SineTone(s.sr, freq)
	if err != nil {
		logger.Log.WithError(err).WithField("freq", freq).Debug("sound: play tone")
		return
	}
	n := s.sr.N(time.Duration(seconds * float64(time.Second)))
	if n <= 0 {
		return
	}
	st := newVolume(beep.Take(n, tone), math.Min(volume, 1))

	s.mu.Lock()
	s.mixer.Add(st)
	s.mu.Unlock()
}

func newVolume(st beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: st, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: st, Base: 2, Volume: math.Log2(vol)}
}

func (s *Sound) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := float64(len(samples)) / float64(s.sr)
	for _, c := range s.clocks {
		c.Update(dt)
	}

	n, _ := s.mixer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (s *Sound) Err() error { return nil }

// StartTicker drives the stream from a goroutine when no audio device is
// available. Mixed output is discarded.
func (s *Sound) StartTicker(interval time.Duration) {
	if s == nil || s.stop != nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.tick(interval, s.stop, s.done)
}

func (s *Sound) tick(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()

	var (
		buf  [][2]float64
		last = time.Now()
		owed float64
	)
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			owed += now.Sub(last).Seconds() * float64(s.sr)
			last = now
			n := int(owed)
			if n == 0 {
				continue
			}
			owed -= float64(n)
			if cap(buf) < n {
				buf = make([][2]float64, n)
			}
			s.Stream(buf[:n])
		}
	}
}

// Stop ends the ticker goroutine started by StartTicker.
func (s *Sound) Stop() {
	if s == nil || s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
}
