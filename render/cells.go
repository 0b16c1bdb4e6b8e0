package render

import (
	"math"

	"zappem.net/pub/math/geom"

	"zappem.net/pub/kinematics/fabrik/view"
)

// Kind identifies what a terminal cell mark depicts.
type Kind int

// The kinds of cell marks, in the order they are painted.
const (
	KindLink Kind = iota
	KindJoint
	KindBase
	KindTip
	KindTarget
)

// Mark is a single terminal cell to paint.
type Mark struct {
	X, Y int
	Kind Kind
}

// Marks maps the chain and target onto a cols by rows grid of cells.
// Marks come out in Kind order, so a caller painting them in sequence
// lets the anchor, tip and target win over links and interior joints
// sharing their cell. Marks outside the grid are dropped.
func Marks(cols, rows int, joints []geom.Vector, target geom.Vector, v view.View) []Mark {
	cell := func(p geom.Vector) (int, int) {
		x, y, _ := v.Project(p)
		return int(math.Floor(x * float64(cols))), int(math.Floor(y * float64(rows)))
	}
	var ms []Mark
	add := func(x, y int, k Kind) {
		if x < 0 || y < 0 || x >= cols || y >= rows {
			return
		}
		ms = append(ms, Mark{X: x, Y: y, Kind: k})
	}

	for i := 0; i+1 < len(joints); i++ {
		x0, y0 := cell(joints[i])
		x1, y1 := cell(joints[i+1])
		line(x0, y0, x1, y1, func(x, y int) { add(x, y, KindLink) })
	}
	for i := 1; i+1 < len(joints); i++ {
		x, y := cell(joints[i])
		add(x, y, KindJoint)
	}
	if len(joints) > 0 {
		x, y := cell(joints[0])
		add(x, y, KindBase)
		x, y = cell(joints[len(joints)-1])
		add(x, y, KindTip)
	}
	if target != nil {
		x, y := cell(target)
		add(x, y, KindTarget)
	}
	return ms
}

// line visits every cell of the Bresenham line from (x0,y0) to
// (x1,y1), both ends included.
func line(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx, sx := x1-x0, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy, sy := y1-y0, 1
	if dy < 0 {
		dy, sy = -dy, -1
	}
	err := dx - dy
	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}
