package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// penetrationEpsilon is the smallest wall penetration that produces a force.
// Anything at or below it would divide by (nearly) zero.
const penetrationEpsilon = 1e-12

// ForceField computes the short-range repulsion between particles and the
// soft penalty force of the container walls.
type ForceField struct {
	p Params
}

func NewForceField(p Params) *ForceField {
	return &ForceField{p: p}
}

// PairwiseForce is the repulsion on particle i at positions[i] from every
// other particle.
func (ff *ForceField) PairwiseForce(positions []mgl64.Vec3, i int) mgl64.Vec3 {
	return ff.PairwiseForceAt(positions, i, positions[i])
}

// PairwiseForceAt is the repulsion on particle i as if it sat at at, with
// every other particle j at positions[j]. Pairs closer than MinDistance or
// farther than CutoffRadius contribute nothing.
func (ff *ForceField) PairwiseForceAt(positions []mgl64.Vec3, i int, at mgl64.Vec3) mgl64.Vec3 {
	var acc mgl64.Vec3
	for j := range positions {
		if j == i {
			continue
		}
		r := at.Sub(positions[j])
		d := r.Len()
		if d < ff.p.MinDistance || d > ff.p.CutoffRadius {
			continue
		}
		mag := mgl64.Clamp(1/d, 0, ff.p.MaxPairForce)
		acc = acc.Add(normalize(r).Mul(mag))
	}
	return acc
}

// WallForce is the container penalty at p.
//
// The radial term acts whenever p is inside the cylinder and grows as the
// particle approaches the wall, pulling it toward the axis. The cap terms act
// only once p is past y = ±H/2 and push it back toward the interior.
func (ff *ForceField) WallForce(p mgl64.Vec3) mgl64.Vec3 {
	var acc mgl64.Vec3

	rad, dir := radial(p)
	if rad < ff.p.CylinderRadius {
		pen := ff.p.CylinderRadius - rad
		if pen > penetrationEpsilon {
			mag := mgl64.Clamp(ff.p.WallStiffness/pen, 0, ff.p.MaxRadialWallForce)
			acc = acc.Sub(dir.Mul(mag))
		}
	}

	half := ff.p.HalfHeight()
	if p.Y() > half {
		if pen := p.Y() - half; pen > penetrationEpsilon {
			acc[1] -= mgl64.Clamp(ff.p.WallStiffness/pen, 0, ff.p.MaxVerticalWallForce)
		}
	} else if p.Y() < -half {
		if pen := -half - p.Y(); pen > penetrationEpsilon {
			acc[1] += mgl64.Clamp(ff.p.WallStiffness/pen, 0, ff.p.MaxVerticalWallForce)
		}
	}

	return acc
}

// Force implements dynamo.ForceSampler: pairwise plus wall force, scaled by
// 1/Timescale. Gravity is not included.
func (ff *ForceField) Force(snapshot []mgl64.Vec3, i int, at mgl64.Vec3) mgl64.Vec3 {
	return ff.PairwiseForceAt(snapshot, i, at).Add(ff.WallForce(at)).Mul(1 / ff.p.Timescale)
}
