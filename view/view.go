// Package view holds the camera configuration shared by the chain
// renderers and by pointer input. Rendering projects world points with
// View.Project and input maps pointer positions back onto the z=0
// plane with View.Unproject, so the two always agree on the transform.
package view

import (
	"zappem.net/pub/math/geom"
)

// View is an orthographic camera looking down -Z at a model rotated by
// RY(Yaw)*RX(Pitch).
type View struct {
	Yaw, Pitch               geom.Angle
	Left, Right, Bottom, Top float64
}

// Default returns the camera of the snake demo: a [-10,10] square
// window, turned 30 degrees about Y and tilted -20 degrees about X.
func Default() View {
	return View{
		Yaw:    geom.Degrees(30),
		Pitch:  geom.Degrees(-20),
		Left:   -10,
		Right:  10,
		Bottom: -10,
		Top:    10,
	}
}

// Square returns a view with a symmetric window of half width extent.
func Square(yaw, pitch geom.Angle, extent float64) View {
	return View{
		Yaw:    yaw,
		Pitch:  pitch,
		Left:   -extent,
		Right:  extent,
		Bottom: -extent,
		Top:    extent,
	}
}

// Model returns the model rotation RY(Yaw)*RX(Pitch).
func (v View) Model() geom.Matrix {
	sy, cy := v.Yaw.S(), v.Yaw.C()
	sx, cx := v.Pitch.S(), v.Pitch.C()
	ry := geom.M(
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	)
	rx := geom.M(
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	)
	return ry.XM(rx)
}

// Project maps world point p to normalized window coordinates, x in
// [0,1] left to right and y in [0,1] top to bottom for points inside
// the window. Depth increases toward the viewer. Missing coordinates
// of p are taken as zero.
func (v View) Project(p geom.Vector) (x, y, depth float64) {
	var c [3]float64
	copy(c[:], p)
	q := v.Model().XV(geom.V(c[0], c[1], c[2]))
	x = (q[0] - v.Left) / (v.Right - v.Left)
	y = 1 - (q[1]-v.Bottom)/(v.Top-v.Bottom)
	return x, y, q[2]
}

// flat returns the view space coordinates of a normalized window
// position.
func (v View) flat(x, y float64) (float64, float64) {
	return v.Left + x*(v.Right-v.Left), v.Bottom + (1-y)*(v.Top-v.Bottom)
}

// Unproject maps a normalized window position to the point on the
// world z=0 plane that Project would place there. Should the view ray
// run parallel to that plane, the window position is mapped directly
// onto the plane with no rotation.
func (v View) Unproject(x, y float64) geom.Vector {
	vx, vy := v.flat(x, y)
	inv, err := v.Model().Inv()
	if err != nil {
		return geom.V(vx, vy, 0)
	}
	a := inv.XV(geom.V(vx, vy, 0))
	d := inv.XV(geom.V(0, 0, 1))
	if geom.Zeroish(d[2]) {
		return geom.V(vx, vy, 0)
	}
	t := -a[2] / d[2]
	p := a.AddS(d, t)
	return geom.V(p[0], p[1], 0)
}

// Scale returns how many normalized window units one world unit spans
// horizontally. Renderers use it to size joint markers.
func (v View) Scale() float64 {
	return 1 / (v.Right - v.Left)
}
