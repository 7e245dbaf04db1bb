package integrators

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta scheme applied to one
// particle. Every stage works on value copies, so RK4 has no state and is
// safe to share between goroutines.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Advance(f dynamo.ForceSampler, snapshot []mgl64.Vec3, i int, p, v mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3) {
	half := dt * 0.5

	k1v := f.Force(snapshot, i, p)
	k1p := v

	k2v := f.Force(snapshot, i, p.Add(k1p.Mul(half)))
	k2p := v.Add(k1v.Mul(half))

	k3v := f.Force(snapshot, i, p.Add(k2p.Mul(half)))
	k3p := v.Add(k2v.Mul(half))

	k4v := f.Force(snapshot, i, p.Add(k3p.Mul(dt)))
	k4p := v.Add(k3v.Mul(dt))

	dt6 := dt / 6.0
	dv := k1v.Add(k2v.Mul(2)).Add(k3v.Mul(2)).Add(k4v)
	dp := k1p.Add(k2p.Mul(2)).Add(k3p.Mul(2)).Add(k4p)

	return p.Add(dp.Mul(dt6)), v.Add(dv.Mul(dt6))
}
