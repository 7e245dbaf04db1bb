package integrators

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
)

// Euler is semi-implicit (symplectic) Euler: the velocity update comes
// first and the position moves with the new velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Advance(f dynamo.ForceSampler, snapshot []mgl64.Vec3, i int, p, v mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3) {
	v = v.Add(f.Force(snapshot, i, p).Mul(dt))
	return p.Add(v.Mul(dt)), v
}
