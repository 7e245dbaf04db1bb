package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
)

// Resolver applies hard positional corrections and velocity responses for
// overlaps, before forces are integrated.
type Resolver struct {
	p Params
}

func NewResolver(p Params) *Resolver {
	return &Resolver{p: p}
}

// Resolve runs the container pass and then the pairwise pass.
func (r *Resolver) Resolve(st *dynamo.State) dynamo.Contacts {
	wall := r.ResolveContainer(st)
	pair := r.ResolvePairs(st)
	return dynamo.Contacts{Wall: wall, Pair: pair}
}

// ResolveContainer clamps every particle back inside the cylinder. A side
// contact moves the particle inward by its overlap, reflects the radial
// velocity with Restitution and then scales the whole velocity by
// DampingFactor. A cap contact clamps y, negates vy and applies the same
// damping. It returns the number of contacts.
func (r *Resolver) ResolveContainer(st *dynamo.State) int {
	radius := r.p.ParticleRadius
	half := r.p.HalfHeight()
	contacts := 0

	for i := range st.Positions {
		p := st.Positions[i]
		v := st.Velocities[i]

		rad, n := radial(p)
		if rad+radius > r.p.CylinderRadius {
			overlap := rad + radius - r.p.CylinderRadius
			p = p.Sub(n.Mul(overlap))

			vn := project(v, n)
			v = v.Sub(vn).Sub(vn.Mul(r.p.Restitution))
			v = v.Mul(r.p.DampingFactor)
			contacts++
		}

		if p.Y()+radius > half {
			p[1] = half - radius
			v[1] = -v[1]
			v = v.Mul(r.p.DampingFactor)
			contacts++
		} else if p.Y()-radius < -half {
			p[1] = -half + radius
			v[1] = -v[1]
			v = v.Mul(r.p.DampingFactor)
			contacts++
		}

		st.Positions[i] = p
		st.Velocities[i] = v
	}

	return contacts
}

// ResolvePairs separates every pair closer than CollisionThreshold and
// exchanges their velocity components along the contact normal.
//
// The sweep is in place over i ascending, j > i ascending: a pair sees the
// positions already corrected by earlier pairs of the same sweep. It must
// stay serial to keep that ordering.
func (r *Resolver) ResolvePairs(st *dynamo.State) int {
	threshold := r.p.CollisionThreshold
	pos := st.Positions
	vel := st.Velocities
	contacts := 0

	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			dist := pos[i].Sub(pos[j]).Len()
			if dist >= threshold {
				continue
			}
			contacts++

			n := normalize(pos[j].Sub(pos[i]))
			shift := n.Mul(0.5 * (threshold - dist))
			pos[i] = pos[i].Sub(shift)
			pos[j] = pos[j].Add(shift)

			vni := project(vel[i], n)
			vnj := project(vel[j], n)
			vel[i] = vel[i].Sub(vni).Add(vnj)
			vel[j] = vel[j].Sub(vnj).Add(vni)
		}
	}

	return contacts
}

// insideTolerance absorbs the rounding left by a positional clamp.
const insideTolerance = 1e-9

// Inside reports whether a particle of the configured radius at p lies
// entirely within the container.
func (r *Resolver) Inside(p mgl64.Vec3) bool {
	rad, _ := radial(p)
	half := r.p.HalfHeight() + insideTolerance
	return rad+r.p.ParticleRadius <= r.p.CylinderRadius+insideTolerance &&
		p.Y()+r.p.ParticleRadius <= half &&
		p.Y()-r.p.ParticleRadius >= -half
}
