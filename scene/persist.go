package scene

import (
	"fmt"

	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/serial"
)

// Load parses a scene document and adds its contents.
func (s *Scene) Load(data []byte) error {
	doc, err := serial.Parse(data)
	if err != nil {
		return fmt.Errorf("scene: load: %w", err)
	}
	s.Read(doc.Reader())
	return nil
}

// Read adds variables, clock settings, library entries and actors from r.
// Actors whose components can't be read are still created with whatever
// did load.
func (s *Scene) Read(r *serial.Reader) {
	if arr, ok := r.Field("variables"); ok {
		s.variables.read(arr)
	}
	if c, ok := r.Obj("clock"); ok {
		if tempo := c.Num("tempo", 0); tempo > 0 {
			s.clock.SetTempo(tempo)
		}
		s.clock.SetSignature(c.Int("beatsPerBar", s.clock.BeatsPerBar()), c.Int("stepsPerBeat", s.clock.StepsPerBeat()))
	}
	if arr, ok := r.Field("library"); ok {
		s.library.read(arr)
	}
	r.Each("actors", func(_ int, ar *serial.Reader) {
		bp, _ := ar.Obj("bp")
		components, _ := bp.Obj("components")
		s.AddActor(ActorDesc{
			Components:    components,
			ParentEntryID: ar.Str("parentEntryId", ""),
			DrawOrder:     ar.Num("drawOrder", -1),
		})
	})
}

// Write emits the scene in the form Read accepts.
func (s *Scene) Write(w *serial.Writer) {
	w.Arr("variables", s.variables.write)
	w.Obj("clock", func(c *serial.Writer) {
		c.Num("tempo", s.clock.Tempo())
		c.Num("beatsPerBar", float64(s.clock.BeatsPerBar()))
		c.Num("stepsPerBeat", float64(s.clock.StepsPerBeat()))
	})
	w.Arr("library", s.library.write)
	w.Arr("actors", func(arr *serial.Writer) {
		s.ForEachActorByDrawOrder(func(a ecs.ActorID) {
			arr.PushObj(func(o *serial.Writer) { s.writeActor(a, o) })
		})
	})
}

func (s *Scene) writeActor(a ecs.ActorID, w *serial.Writer) {
	w.Str("actorId", a.String())
	if parent := s.parents[a]; parent != "" {
		w.Str("parentEntryId", parent)
	}
	if order, ok := s.DrawOrder(a); ok {
		w.Num("drawOrder", order)
	}
	w.Obj("bp", func(bp *serial.Writer) {
		bp.Obj("components", func(cw *serial.Writer) {
			s.behaviors.ForEach(func(b Behavior) {
				if b.HasComponent(a) {
					cw.Obj(b.Name(), func(o *serial.Writer) { b.WriteComponent(a, o) })
				}
			})
		})
	})
}
