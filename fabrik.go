// Package fabrik solves the inverse kinematics of a uniform chain of
// joints (a "snake arm") using Forward And Backward Reaching Inverse
// Kinematics.
//
// A chain is an ordered set of N joints separated by a fixed segment
// length. Joint 0 is the anchor (base) and joint N-1 is the tip. Each
// call to Solve moves the joints so that the tip approaches a target
// position while every consecutive pair of joints stays exactly one
// segment apart.
//
//	J0 (anchor) --d-- J1 --d-- J2 ... --d-- J[N-1] (tip) -> target
//
// Solve is purely geometric. It keeps no state between calls other than
// the joint positions themselves, so every call warm-starts from the
// pose the previous call left behind.
package fabrik

import (
	"errors"
	"fmt"
	"math"

	"zappem.net/pub/math/geom"
)

// Epsilon is the smallest joint separation the solver divides by.
const Epsilon = 1e-9

// Err* are the errors exported by this package.
var (
	ErrTooFewJoints  = errors.New("chain needs at least two joints")
	ErrBadSegment    = errors.New("segment length must be positive")
	ErrBadTolerance  = errors.New("tolerance must be positive")
	ErrBadIterations = errors.New("iteration cap must be positive")
	ErrBadAxis       = errors.New("rest axis has no direction")
)

// Params holds the construction parameters of a chain.
type Params struct {
	// Joints is the number of joints, N >= 2.
	Joints int
	// Segment is the distance between consecutive joints.
	Segment float64
	// Tolerance is the tip to target distance considered converged.
	Tolerance float64
	// MaxIterations bounds the forward/backward passes of one Solve.
	MaxIterations int
	// Anchor is the rest position of joint 0. It defaults to the
	// origin.
	Anchor geom.Vector
	// Axis is the direction along which the chain is laid out at
	// rest. It defaults to +X and need not be normalized.
	Axis geom.Vector
}

// Chain holds the joints of a snake arm and the parameters that
// constrain them.
type Chain struct {
	j      []geom.Vector
	d      float64
	tol    float64
	maxIt  int
	anchor geom.Vector
	axis   geom.Vector
}

// Report summarizes a single Solve call. It is informational: the
// chain is valid whatever the report says, and a non-converged result
// simply improves on later calls if the target holds still.
type Report struct {
	// Reachable is false when the target lay beyond the chain's
	// reach and the chain was stretched toward it instead.
	Reachable bool
	// Converged reports the tip ended within tolerance of the target.
	Converged bool
	// Iterations counts the forward/backward passes performed.
	Iterations int
	// TipError is the final tip to target distance.
	TipError float64
}

// NewChain validates p and returns a chain laid out in a straight line
// from p.Anchor along p.Axis.
func NewChain(p Params) (*Chain, error) {
	if p.Joints < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewJoints, p.Joints)
	}
	if !(p.Segment > 0) || math.IsInf(p.Segment, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrBadSegment, p.Segment)
	}
	if !(p.Tolerance > 0) || math.IsInf(p.Tolerance, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrBadTolerance, p.Tolerance)
	}
	if p.MaxIterations <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadIterations, p.MaxIterations)
	}
	anchor := geom.V(0, 0, 0)
	if p.Anchor != nil {
		anchor = vec3(p.Anchor)
	}
	axis := geom.V(1, 0, 0)
	if p.Axis != nil {
		u, err := vec3(p.Axis).Normalize()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadAxis, err)
		}
		axis = u
	}
	c := &Chain{
		j:      make([]geom.Vector, p.Joints),
		d:      p.Segment,
		tol:    p.Tolerance,
		maxIt:  p.MaxIterations,
		anchor: anchor,
		axis:   axis,
	}
	c.Reset()
	return c, nil
}

// Reset returns the chain to its rest pose: a straight line from the
// anchor along the rest axis with joints one segment apart.
func (c *Chain) Reset() {
	for i := range c.j {
		c.j[i] = c.anchor.AddS(c.axis, float64(i)*c.d)
	}
}

// Len returns the number of joints in the chain.
func (c *Chain) Len() int {
	return len(c.j)
}

// Segment returns the fixed distance between consecutive joints.
func (c *Chain) Segment() float64 {
	return c.d
}

// Reach returns the length of the fully extended chain.
func (c *Chain) Reach() float64 {
	return c.d * float64(len(c.j)-1)
}

// Joint returns a copy of joint i. Out of range indices return nil.
func (c *Chain) Joint(i int) geom.Vector {
	if i < 0 || i >= len(c.j) {
		return nil
	}
	return geom.V(c.j[i]...)
}

// Joints returns a copy of every joint position, anchor first. The
// copy is what renderers should hold on to between Solve calls.
func (c *Chain) Joints() []geom.Vector {
	js := make([]geom.Vector, len(c.j))
	for i, v := range c.j {
		js[i] = geom.V(v...)
	}
	return js
}

// Base returns a copy of the anchor joint.
func (c *Chain) Base() geom.Vector {
	return c.Joint(0)
}

// Tip returns a copy of the end effector joint.
func (c *Chain) Tip() geom.Vector {
	return c.Joint(len(c.j) - 1)
}

// Reachable reports whether target lies within the chain's reach of
// its current anchor.
func (c *Chain) Reachable(target geom.Vector) bool {
	return dist(c.j[0], vec3(target)) <= c.Reach()
}

// Solve moves the joints toward a pose whose tip lies on target. A
// target beyond reach stretches the chain along the ray from the
// anchor toward it. Otherwise forward and backward reaching passes
// alternate until the tip is within tolerance of target or the
// iteration cap is spent. The anchor never moves.
func (c *Chain) Solve(target geom.Vector) Report {
	t := vec3(target)
	n := len(c.j)
	base := geom.V(c.j[0]...)

	r := dist(base, t)
	if r > c.Reach() {
		u := t.Sub(base).Scale(1 / r)
		for i := 1; i < n; i++ {
			c.j[i] = base.AddS(u, float64(i)*c.d)
		}
		e := dist(c.j[n-1], t)
		return Report{
			Converged: e < c.tol,
			TipError:  e,
		}
	}

	rep := Report{Reachable: true}
	for rep.Iterations < c.maxIt {
		c.forward(t)
		c.backward(base)
		rep.Iterations++
		if rep.TipError = dist(c.j[n-1], t); rep.TipError < c.tol {
			rep.Converged = true
			break
		}
	}
	return rep
}

// forward pins the tip to t and walks toward the anchor, pulling each
// joint to one segment from its already placed successor.
func (c *Chain) forward(t geom.Vector) {
	n := len(c.j)
	c.j[n-1] = geom.V(t...)
	for i := n - 2; i >= 0; i-- {
		fallback := c.axis.Scale(-1)
		if i+2 < n {
			fallback = c.j[i+1].Sub(c.j[i+2])
		}
		c.j[i] = c.reach(c.j[i+1], c.j[i], fallback)
	}
}

// backward pins joint 0 to base and walks toward the tip.
func (c *Chain) backward(base geom.Vector) {
	c.j[0] = geom.V(base...)
	for i := 0; i+1 < len(c.j); i++ {
		fallback := c.axis
		if i > 0 {
			fallback = c.j[i].Sub(c.j[i-1])
		}
		c.j[i+1] = c.reach(c.j[i], c.j[i+1], fallback)
	}
}

// reach returns the point one segment from fixed in the direction of
// loose. When the two coincide there is no direction to preserve, so
// the fallback direction is used instead; a fallback that is itself
// degenerate falls back to the rest axis.
func (c *Chain) reach(fixed, loose, fallback geom.Vector) geom.Vector {
	delta := loose.Sub(fixed)
	r := delta.R()
	if r >= Epsilon {
		return lerp(fixed, loose, c.d/r)
	}
	u, err := fallback.Normalize()
	if err != nil {
		u = c.axis
	}
	return fixed.AddS(u, c.d)
}
