package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Joint ties a body to a kinematic anchor that lives outside the space.
// Moving the anchor drags or slides the body along with it.
type Joint struct {
	anchor     *cp.Body
	constraint *cp.Constraint
}

// grooveLength is how far a sliding body may travel from its anchor.
const grooveLength = 1e4

func newAnchor(x, y float64) *cp.Body {
	anchor := cp.NewKinematicBody()
	anchor.SetPosition(cp.Vector{X: x, Y: y})
	return anchor
}

func (w *World) addJoint(anchor *cp.Body, c *cp.Constraint) *Joint {
	w.space.AddConstraint(c)
	return &Joint{anchor: anchor, constraint: c}
}

// AddDragJoint pulls body's point under x, y toward the anchor with a force
// proportional to its mass.
func (w *World) AddDragJoint(body *cp.Body, x, y float64) *Joint {
	if w == nil || w.space == nil || !IsDynamic(body) {
		return nil
	}
	anchor := newAnchor(x, y)
	p := cp.Vector{X: x, Y: y}
	c := cp.NewPivotJoint2(anchor, body, cp.Vector{}, body.WorldToLocal(p))
	c.SetMaxForce(1000 * body.Mass())
	c.SetErrorBias(math.Pow(1-0.15, 60))
	return w.addJoint(anchor, c)
}

// AddPinJoint fixes body's position and leaves it free to rotate.
func (w *World) AddPinJoint(body *cp.Body) *Joint {
	if w == nil || w.space == nil || body == nil {
		return nil
	}
	p := body.Position()
	anchor := newAnchor(p.X, p.Y)
	return w.addJoint(anchor, cp.NewPivotJoint2(anchor, body, cp.Vector{}, cp.Vector{}))
}

// AddAxisJoint constrains body to move along the unit axis through its
// current position.
func (w *World) AddAxisJoint(body *cp.Body, axis cp.Vector) *Joint {
	if w == nil || w.space == nil || body == nil {
		return nil
	}
	p := body.Position()
	anchor := newAnchor(p.X, p.Y)
	d := axis.Mult(grooveLength)
	return w.addJoint(anchor, cp.NewGrooveJoint(anchor, body, d.Neg(), d, cp.Vector{}))
}

// RemoveJoint detaches j. Joints already dropped with their body are ignored.
func (w *World) RemoveJoint(j *Joint) {
	if w == nil || w.space == nil || j == nil {
		return
	}
	if w.space.ContainsConstraint(j.constraint) {
		w.space.RemoveConstraint(j.constraint)
	}
}

// MoveAnchor places the joint's anchor at x, y.
func (j *Joint) MoveAnchor(x, y float64) {
	if j == nil {
		return
	}
	j.anchor.SetPosition(cp.Vector{X: x, Y: y})
	j.constraint.ActivateBodies()
}

// Anchor returns the anchor position.
func (j *Joint) Anchor() (x, y float64) {
	if j == nil {
		return 0, 0
	}
	p := j.anchor.Position()
	return p.X, p.Y
}

// Attached reports whether the joint is still in the space.
func (w *World) Attached(j *Joint) bool {
	return w != nil && w.space != nil && j != nil && w.space.ContainsConstraint(j.constraint)
}

// removeConstraints drops every joint on body before it leaves the space.
func (w *World) removeConstraints(body *cp.Body) {
	var attached []*cp.Constraint
	body.EachConstraint(func(c *cp.Constraint) { attached = append(attached, c) })
	for _, c := range attached {
		if w.space.ContainsConstraint(c) {
			w.space.RemoveConstraint(c)
		}
	}
}

// SetFixedRotation stops or restores rotation of a body. It takes effect
// whenever the body is dynamic.
func (w *World) SetFixedRotation(body *cp.Body, fixed bool) {
	if w == nil || body == nil {
		return
	}
	if fixed {
		w.fixed[body] = struct{}{}
		if IsDynamic(body) {
			body.SetAngularVelocity(0)
		}
	} else {
		delete(w.fixed, body)
	}
	w.UpdateMass(body)
}
