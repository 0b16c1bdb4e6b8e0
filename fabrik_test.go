package fabrik

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"zappem.net/pub/math/geom"
)

const lengthSlack = 1e-6

func newArm(t *testing.T, n int, d float64) *Chain {
	t.Helper()
	c, err := NewChain(Params{
		Joints:        n,
		Segment:       d,
		Tolerance:     0.05,
		MaxIterations: 20,
	})
	if err != nil {
		t.Fatalf("failed to define chain: %v", err)
	}
	return c
}

// checkLinks validates every consecutive pair of joints is one
// segment apart.
func checkLinks(t *testing.T, c *Chain) {
	t.Helper()
	js := c.Joints()
	for i := 0; i+1 < len(js); i++ {
		r := dist(js[i], js[i+1])
		if math.IsNaN(r) || math.Abs(r-c.Segment()) > lengthSlack {
			t.Errorf("link [%d,%d] length=%v want=%v (joints=%v)", i, i+1, r, c.Segment(), js)
			return
		}
	}
}

func TestNewChain(t *testing.T) {
	c := newArm(t, 4, 1.25)
	if got := c.Len(); got != 4 {
		t.Errorf("joint count: got=%d want=4", got)
	}
	if got := c.Reach(); got != 3.75 {
		t.Errorf("reach: got=%v want=3.75", got)
	}
	for i := 0; i < c.Len(); i++ {
		if want := geom.V(1.25*float64(i), 0, 0); !c.Joint(i).Equals(want) {
			t.Errorf("rest joint[%d]: got=%v want=%v", i, c.Joint(i), want)
		}
	}
	if c.Joint(-1) != nil || c.Joint(4) != nil {
		t.Error("out of range joints should be nil")
	}

	vs := []struct {
		p    Params
		want error
	}{
		{p: Params{Joints: 1, Segment: 1, Tolerance: 1, MaxIterations: 1}, want: ErrTooFewJoints},
		{p: Params{Joints: 3, Segment: 0, Tolerance: 1, MaxIterations: 1}, want: ErrBadSegment},
		{p: Params{Joints: 3, Segment: math.NaN(), Tolerance: 1, MaxIterations: 1}, want: ErrBadSegment},
		{p: Params{Joints: 3, Segment: 1, Tolerance: -1, MaxIterations: 1}, want: ErrBadTolerance},
		{p: Params{Joints: 3, Segment: 1, Tolerance: math.Inf(1), MaxIterations: 1}, want: ErrBadTolerance},
		{p: Params{Joints: 3, Segment: 1, Tolerance: 1, MaxIterations: 0}, want: ErrBadIterations},
		{p: Params{Joints: 3, Segment: 1, Tolerance: 1, MaxIterations: 1, Axis: geom.V(0, 0, 0)}, want: ErrBadAxis},
	}
	for i, v := range vs {
		if _, err := NewChain(v.p); !errors.Is(err, v.want) {
			t.Errorf("[%d] NewChain(%+v): got=%v want=%v", i, v.p, err, v.want)
		}
	}
}

func TestRestLayout(t *testing.T) {
	c, err := NewChain(Params{
		Joints:        3,
		Segment:       2,
		Tolerance:     0.01,
		MaxIterations: 10,
		Anchor:        geom.V(1, 1, 0),
		Axis:          geom.V(0, 5, 0),
	})
	if err != nil {
		t.Fatalf("failed to define chain: %v", err)
	}
	if want := geom.V(1, 5, 0); !c.Tip().Equals(want) {
		t.Errorf("rest tip: got=%v want=%v", c.Tip(), want)
	}
	c.Solve(geom.V(3, 2, 0))
	c.Reset()
	if want := geom.V(1, 3, 0); !c.Joint(1).Equals(want) {
		t.Errorf("reset joint[1]: got=%v want=%v", c.Joint(1), want)
	}
}

func TestJointsAreCopies(t *testing.T) {
	c := newArm(t, 3, 1)
	js := c.Joints()
	js[1][0] = 99
	js[2] = geom.V(7, 7, 7)
	if want := geom.V(1, 0, 0); !c.Joint(1).Equals(want) {
		t.Errorf("chain mutated through Joints: got=%v", c.Joint(1))
	}
	b := c.Base()
	b[0] = -3
	if !c.Base().Equals(geom.V(0, 0, 0)) {
		t.Errorf("chain mutated through Base: got=%v", c.Base())
	}
}

func TestSolveReachable(t *testing.T) {
	targets := []geom.Vector{
		geom.V(2, 2, 0),
		geom.V(0, 3, 0),
		geom.V(-1, 2, 0),
		geom.V(1, -1, 0),
		geom.V(2.5, 2.5, 0),
		geom.V(-2, -2, 0),
		geom.V(-3, 1, 0),
		geom.V(0, -3.7, 0),
		geom.V(3.75, 0, 0),
		geom.V(0.5, 0.5, 0),
	}
	for i, target := range targets {
		c := newArm(t, 4, 1.25)
		base := c.Base()
		rep := c.Solve(target)
		if !rep.Reachable {
			t.Errorf("[%d] target %v reported unreachable", i, target)
		}
		if r := dist(c.Tip(), target); r >= 0.05 {
			t.Errorf("[%d] tip=%v is %v from target=%v", i, c.Tip(), r, target)
		}
		if !rep.Converged || rep.Iterations == 0 || rep.Iterations > 20 {
			t.Errorf("[%d] unexpected report: %+v", i, rep)
		}
		if !c.Base().Equals(base) {
			t.Errorf("[%d] anchor moved: got=%v want=%v", i, c.Base(), base)
		}
		checkLinks(t, c)
	}
}

func TestSolveUnreachable(t *testing.T) {
	c := newArm(t, 4, 1.25)
	target := geom.V(6, 8, 0)
	rep := c.Solve(target)
	if rep.Reachable || rep.Iterations != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if want := 10 - c.Reach(); math.Abs(rep.TipError-want) > lengthSlack {
		t.Errorf("tip error: got=%v want=%v", rep.TipError, want)
	}
	base := c.Base()
	ray := target.Sub(base)
	for i := 0; i < c.Len(); i++ {
		j := c.Joint(i)
		if r, want := dist(base, j), float64(i)*c.Segment(); math.Abs(r-want) > lengthSlack {
			t.Errorf("joint[%d] at %v from anchor, want %v", i, r, want)
		}
		if off := j.Sub(base).Cross(ray).R(); off > lengthSlack {
			t.Errorf("joint[%d]=%v is %v off the anchor-target ray", i, j, off)
		}
	}
	checkLinks(t, c)
}

func TestSolveSnake(t *testing.T) {
	c := newArm(t, 24, 0.35)
	if got := c.Reach(); math.Abs(got-8.05) > lengthSlack {
		t.Fatalf("reach: got=%v want=8.05", got)
	}
	target := geom.V(5, 5, 0)
	c.Solve(target)
	if r := dist(c.Tip(), target); r >= 0.05 {
		t.Errorf("tip=%v is %v from target=%v", c.Tip(), r, target)
	}
	if !c.Base().Equals(geom.V(0, 0, 0)) {
		t.Errorf("anchor moved: %v", c.Base())
	}
	checkLinks(t, c)
}

func TestSolveMonotone(t *testing.T) {
	targets := []geom.Vector{
		geom.V(2, 2, 0),
		geom.V(-1, 2, 0),
		geom.V(-2, -2, 0),
		geom.V(0, 3, 0),
	}
	for i, target := range targets {
		c, err := NewChain(Params{Joints: 4, Segment: 1.25, Tolerance: 0.05, MaxIterations: 1})
		if err != nil {
			t.Fatalf("failed to define chain: %v", err)
		}
		last := math.Inf(1)
		for k := 0; k < 30; k++ {
			rep := c.Solve(target)
			if rep.TipError > last+1e-12 {
				t.Errorf("[%d] pass %d: tip error grew %v -> %v", i, k, last, rep.TipError)
			}
			last = rep.TipError
		}
		if last >= 0.05 {
			t.Errorf("[%d] did not settle: error=%v", i, last)
		}
	}
}

func TestSolveStaysConverged(t *testing.T) {
	c := newArm(t, 24, 0.35)
	target := geom.V(5, 5, 0)
	for k := 0; k < 10; k++ {
		rep := c.Solve(target)
		if !rep.Converged || rep.TipError >= 0.05 {
			t.Errorf("call %d: %+v", k, rep)
		}
		checkLinks(t, c)
	}
}

func TestSolveDegenerate(t *testing.T) {
	for _, n := range []int{2, 3, 4, 24} {
		c := newArm(t, n, 1.25)
		base := c.Base()
		rep := c.Solve(base)
		if !rep.Reachable {
			t.Errorf("n=%d: target on anchor reported unreachable", n)
		}
		for i, j := range c.Joints() {
			for _, x := range j {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					t.Fatalf("n=%d: joint[%d]=%v not finite", n, i, j)
				}
			}
		}
		if !c.Base().Equals(base) {
			t.Errorf("n=%d: anchor moved: %v", n, c.Base())
		}
		checkLinks(t, c)
	}
}

func TestSolveWandering(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	c := newArm(t, 12, 0.5)
	base := c.Base()
	for k := 0; k < 500; k++ {
		target := geom.V(
			12*(rnd.Float64()-0.5),
			12*(rnd.Float64()-0.5),
			2*(rnd.Float64()-0.5),
		)
		if k%7 == 0 {
			// Snap onto an existing joint to exercise coincidences.
			target = c.Joint(rnd.Intn(c.Len()))
		}
		rep := c.Solve(target)
		if rep.Reachable != c.Reachable(target) {
			t.Errorf("[%d] reachability mismatch for %v", k, target)
		}
		if !c.Base().Equals(base) {
			t.Fatalf("[%d] anchor moved: %v", k, c.Base())
		}
		checkLinks(t, c)
	}
}
