package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// normalize returns the unit vector along v, or the zero vector when v has
// no length. mgl64's Normalize divides by zero in that case.
func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// project returns the component of v along the unit vector n.
func project(v, n mgl64.Vec3) mgl64.Vec3 {
	return n.Mul(v.Dot(n))
}

// radial returns the distance from the y axis and the outward unit vector
// in the xz plane (zero on the axis).
func radial(p mgl64.Vec3) (float64, mgl64.Vec3) {
	d := math.Sqrt(p.X()*p.X() + p.Z()*p.Z())
	return d, normalize(mgl64.Vec3{p.X(), 0, p.Z()})
}
