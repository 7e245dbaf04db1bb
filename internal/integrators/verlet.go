package integrators

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
)

// Verlet is velocity Verlet: two force samples per step, one at the start
// and one at the drifted position.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (vv *Verlet) Name() string { return "verlet" }

func (vv *Verlet) Advance(f dynamo.ForceSampler, snapshot []mgl64.Vec3, i int, p, v mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3) {
	a := f.Force(snapshot, i, p)
	next := p.Add(v.Mul(dt)).Add(a.Mul(0.5 * dt * dt))
	aNext := f.Force(snapshot, i, next)
	return next, v.Add(a.Add(aNext).Mul(0.5 * dt))
}
