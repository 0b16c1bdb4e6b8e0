package fabrik

import "zappem.net/pub/math/geom"

// vec3 copies the first three coordinates of v into a new vector,
// padding missing coordinates with zero.
func vec3(v geom.Vector) geom.Vector {
	u := geom.V(0, 0, 0)
	copy(u, v)
	return u
}

// dist returns the euclidean distance between a and b.
func dist(a, b geom.Vector) float64 {
	return a.Sub(b).R()
}

// lerp returns a + f*(b-a). With f = d/|b-a| this is the point d from
// a toward b.
func lerp(a, b geom.Vector, f float64) geom.Vector {
	return a.AddS(b.Sub(a), f)
}
