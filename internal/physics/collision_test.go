package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateOf(pos []mgl64.Vec3, vel []mgl64.Vec3) *dynamo.State {
	st := dynamo.NewState(pos)
	copy(st.Velocities, vel)
	return &st
}

func assertVec(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for k := 0; k < 3; k++ {
		assert.InDelta(t, want[k], got[k], delta, msgAndArgs...)
	}
}

func TestResolvePairs_HeadOnSwap(t *testing.T) {
	r := NewResolver(DefaultParams())
	st := stateOf(
		[]mgl64.Vec3{{-0.04, 0, 0}, {0.04, 0, 0}},
		[]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}},
	)

	n := r.ResolvePairs(st)

	require.Equal(t, 1, n)
	assertVec(t, mgl64.Vec3{-1, 0, 0}, st.Velocities[0], 1e-12)
	assertVec(t, mgl64.Vec3{1, 0, 0}, st.Velocities[1], 1e-12)
	assertVec(t, mgl64.Vec3{-0.05, 0, 0}, st.Positions[0], 1e-12)
	assertVec(t, mgl64.Vec3{0.05, 0, 0}, st.Positions[1], 1e-12)
	assert.InDelta(t, DefaultCollisionThreshold, st.Positions[1].Sub(st.Positions[0]).Len(), 1e-12)
}

func TestResolvePairs_TangentialUntouched(t *testing.T) {
	r := NewResolver(DefaultParams())
	st := stateOf(
		[]mgl64.Vec3{{0, 0, 0}, {0.06, 0, 0}},
		[]mgl64.Vec3{{1, 0.5, 0}, {-1, -0.25, 0.3}},
	)

	r.ResolvePairs(st)

	assertVec(t, mgl64.Vec3{-1, 0.5, 0}, st.Velocities[0], 1e-12)
	assertVec(t, mgl64.Vec3{1, -0.25, 0.3}, st.Velocities[1], 1e-12)
}

func TestResolvePairs_ConservesMomentum(t *testing.T) {
	r := NewResolver(DefaultParams())
	st := stateOf(
		[]mgl64.Vec3{{0, 0, 0}, {0.03, 0.04, 0.02}},
		[]mgl64.Vec3{{0.3, -2, 1}, {1.5, 0.2, -0.7}},
	)
	before := st.Velocities[0].Add(st.Velocities[1])

	r.ResolvePairs(st)

	after := st.Velocities[0].Add(st.Velocities[1])
	assertVec(t, before, after, 1e-12)
}

func TestResolvePairs_SweepSeesEarlierCorrections(t *testing.T) {
	r := NewResolver(DefaultParams())
	// 1 and 2 start out of contact; pushing 1 away from 0 brings it into range of 2.
	st := stateOf(
		[]mgl64.Vec3{{0, 0, 0}, {0.08, 0, 0}, {0.185, 0, 0}},
		make([]mgl64.Vec3, 3),
	)

	n := r.ResolvePairs(st)

	require.Equal(t, 2, n)
	assert.InDelta(t, -0.01, st.Positions[0].X(), 1e-12)
	assert.InDelta(t, 0.0875, st.Positions[1].X(), 1e-12)
	assert.InDelta(t, 0.1875, st.Positions[2].X(), 1e-12)
}

func TestResolvePairs_CoincidentParticlesStayFinite(t *testing.T) {
	r := NewResolver(DefaultParams())
	st := stateOf(
		[]mgl64.Vec3{{0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}},
		[]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}},
	)

	r.ResolvePairs(st)

	assert.True(t, st.IsValid())
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, st.Velocities[0])
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, st.Velocities[1])
}

func TestResolveContainer_Side(t *testing.T) {
	p := DefaultParams()
	r := NewResolver(p)
	st := stateOf(
		[]mgl64.Vec3{{2.99, 0, 0}},
		[]mgl64.Vec3{{2, 0, 1}},
	)

	n := r.ResolveContainer(st)

	require.Equal(t, 1, n)
	rad := math.Hypot(st.Positions[0].X(), st.Positions[0].Z())
	assert.LessOrEqual(t, rad+p.ParticleRadius, p.CylinderRadius+1e-12)
	assert.InDelta(t, p.CylinderRadius-p.ParticleRadius, rad, 1e-12)

	// Outward normal speed 2 becomes -2 * restitution * damping.
	assert.InDelta(t, -2*p.Restitution*p.DampingFactor, st.Velocities[0].X(), 1e-12)
	assert.InDelta(t, 1*p.DampingFactor, st.Velocities[0].Z(), 1e-12)
	assert.InDelta(t, 0, st.Velocities[0].Y(), 1e-12)
}

func TestResolveContainer_OffAxisDirection(t *testing.T) {
	p := DefaultParams()
	r := NewResolver(p)
	st := stateOf(
		[]mgl64.Vec3{{2.2, 0.5, 2.2}},
		[]mgl64.Vec3{{1, 0, 1}},
	)

	r.ResolveContainer(st)

	pos := st.Positions[0]
	rad := math.Hypot(pos.X(), pos.Z())
	assert.InDelta(t, p.CylinderRadius-p.ParticleRadius, rad, 1e-12)
	assert.InDelta(t, pos.X(), pos.Z(), 1e-12, "correction must stay radial")
	assert.Equal(t, 0.5, pos.Y())

	v := st.Velocities[0]
	want := -p.Restitution * p.DampingFactor
	assert.InDelta(t, want, v.X(), 1e-12)
	assert.InDelta(t, want, v.Z(), 1e-12)
}

func TestResolveContainer_Caps(t *testing.T) {
	p := DefaultParams()
	r := NewResolver(p)

	tests := []struct {
		name    string
		pos     mgl64.Vec3
		vel     mgl64.Vec3
		wantPos mgl64.Vec3
		wantVel mgl64.Vec3
	}{
		{
			name:    "top",
			pos:     mgl64.Vec3{0, 1.99, 0},
			vel:     mgl64.Vec3{1, 3, 0},
			wantPos: mgl64.Vec3{0, 1.95, 0},
			wantVel: mgl64.Vec3{0.7, -2.1, 0},
		},
		{
			name:    "bottom",
			pos:     mgl64.Vec3{0, -2.5, 0},
			vel:     mgl64.Vec3{0, -4, 0},
			wantPos: mgl64.Vec3{0, -1.95, 0},
			wantVel: mgl64.Vec3{0, 2.8, 0},
		},
		{
			name:    "inside untouched",
			pos:     mgl64.Vec3{0.5, 0, -0.5},
			vel:     mgl64.Vec3{1, 1, 1},
			wantPos: mgl64.Vec3{0.5, 0, -0.5},
			wantVel: mgl64.Vec3{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := stateOf([]mgl64.Vec3{tt.pos}, []mgl64.Vec3{tt.vel})
			r.ResolveContainer(st)
			assertVec(t, tt.wantPos, st.Positions[0], 1e-12)
			assertVec(t, tt.wantVel, st.Velocities[0], 1e-12)
		})
	}
}

func TestResolve_CountsContacts(t *testing.T) {
	r := NewResolver(DefaultParams())
	st := stateOf(
		[]mgl64.Vec3{{0, 0, 0}, {0.05, 0, 0}, {0, 2.5, 0}},
		make([]mgl64.Vec3, 3),
	)

	c := r.Resolve(st)

	assert.Equal(t, dynamo.Contacts{Wall: 1, Pair: 1}, c)
}

func TestResolve_ContainerBeforePairs(t *testing.T) {
	r := NewResolver(DefaultParams())
	st := stateOf(
		[]mgl64.Vec3{{3.0, 0, 0}, {2.92, 0, 0}},
		[]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}},
	)

	c := r.Resolve(st)

	// The wall pushes particle 0 to 2.95 and damps it to -0.56; only then
	// does the pair pass separate and swap the two.
	assert.Equal(t, dynamo.Contacts{Wall: 1, Pair: 1}, c)
	assertVec(t, mgl64.Vec3{2.985, 0, 0}, st.Positions[0], 1e-12)
	assertVec(t, mgl64.Vec3{2.885, 0, 0}, st.Positions[1], 1e-12)
	assertVec(t, mgl64.Vec3{-1, 0, 0}, st.Velocities[0], 1e-12)
	assertVec(t, mgl64.Vec3{-0.56, 0, 0}, st.Velocities[1], 1e-12)
}

func TestInside(t *testing.T) {
	r := NewResolver(DefaultParams())

	assert.True(t, r.Inside(mgl64.Vec3{0, 0, 0}))
	assert.True(t, r.Inside(mgl64.Vec3{2.95, 1.95, 0}))
	assert.False(t, r.Inside(mgl64.Vec3{2.96, 0, 0}))
	assert.False(t, r.Inside(mgl64.Vec3{0, -1.97, 0}))
}
