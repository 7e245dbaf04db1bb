package integrators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/physics"
	"github.com/stretchr/testify/assert"
)

type constantForce struct{ f mgl64.Vec3 }

func (c constantForce) Force(_ []mgl64.Vec3, _ int, _ mgl64.Vec3) mgl64.Vec3 { return c.f }

// spring pulls every particle toward the origin with unit stiffness.
type spring struct{}

func (spring) Force(_ []mgl64.Vec3, _ int, at mgl64.Vec3) mgl64.Vec3 { return at.Mul(-1) }

func TestRK4ConstantForceIsExact(t *testing.T) {
	integ := NewRK4()
	f := constantForce{mgl64.Vec3{1, -2, 3}}
	p0 := mgl64.Vec3{0.5, 0.5, 0.5}
	v0 := mgl64.Vec3{-1, 0, 2}
	dt := 0.01

	p, v := integ.Advance(f, nil, 0, p0, v0, dt)

	wantV := v0.Add(f.f.Mul(dt))
	wantP := p0.Add(v0.Mul(dt)).Add(f.f.Mul(0.5 * dt * dt))
	for k := 0; k < 3; k++ {
		assert.InDelta(t, wantV[k], v[k], 1e-14)
		assert.InDelta(t, wantP[k], p[k], 1e-14)
	}
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	p := mgl64.Vec3{1, 0, 0}
	v := mgl64.Vec3{}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		p, v = integ.Advance(spring{}, nil, 0, p, v, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(p.X()-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", p.X(), expectedX)
	}
	if math.Abs(v.X()-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", v.X(), expectedV)
	}
}

// scalarRK4 integrates particle 0 of a pair stacked on the cylinder axis,
// with particle 1 fixed at y = 0.15. Only the y components are non-zero.
func scalarRK4(p physics.Params, y, v float64) (float64, float64) {
	force := func(y float64) float64 {
		d := 0.15 - y
		if d < p.MinDistance || d > p.CutoffRadius {
			return 0
		}
		return -math.Min(1/d, p.MaxPairForce) / p.Timescale
	}
	dt := p.Dt
	h := dt / 2

	k1v, k1p := force(y), v
	k2v, k2p := force(y+k1p*h), v+k1v*h
	k3v, k3p := force(y+k2p*h), v+k2v*h
	k4v, k4p := force(y+k3p*dt), v+k3v*dt

	return y + (k1p+2*k2p+2*k3p+k4p)*dt/6, v + (k1v+2*k2v+2*k3v+k4v)*dt/6
}

func TestRK4SingleStepMatchesReference(t *testing.T) {
	params := physics.DefaultParams()
	field := physics.NewForceField(params)
	integ := NewRK4()

	snapshot := []mgl64.Vec3{{0, -0.15, 0}, {0, 0.15, 0}}
	v0 := mgl64.Vec3{0, 0.5, 0}

	p, v := integ.Advance(field, snapshot, 0, snapshot[0], v0, params.Dt)

	wantY, wantV := scalarRK4(params, -0.15, 0.5)
	assert.InDelta(t, wantY, p.Y(), 1e-9)
	assert.InDelta(t, wantV, v.Y(), 1e-9)
	assert.InDelta(t, -0.1499516667577235, p.Y(), 1e-9)
	assert.InDelta(t, 0.46666395032635444, v.Y(), 1e-9)
	assert.Zero(t, p.X())
	assert.Zero(t, p.Z())
	assert.Zero(t, v.X())
	assert.Zero(t, v.Z())

	// The snapshot is read-only to the integrator.
	assert.Equal(t, mgl64.Vec3{0, -0.15, 0}, snapshot[0])
}

func TestRK4Deterministic(t *testing.T) {
	params := physics.DefaultParams()
	field := physics.NewForceField(params)
	snapshot := []mgl64.Vec3{{0.1, 0.2, 0.3}, {0.3, 0.1, 0.2}, {-0.1, 0.4, 0.25}}

	p1, v1 := NewRK4().Advance(field, snapshot, 2, snapshot[2], mgl64.Vec3{1, 2, 3}, params.Dt)
	p2, v2 := NewRK4().Advance(field, snapshot, 2, snapshot[2], mgl64.Vec3{1, 2, 3}, params.Dt)

	assert.Equal(t, p1, p2)
	assert.Equal(t, v1, v2)
}
