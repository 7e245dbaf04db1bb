package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State holds one position and one velocity per particle. Index i in both
// slices refers to the same particle.
type State struct {
	Positions  []mgl64.Vec3
	Velocities []mgl64.Vec3
}

// NewState returns a state at the given positions with zero velocities.
// The positions are copied.
func NewState(positions []mgl64.Vec3) State {
	p := make([]mgl64.Vec3, len(positions))
	copy(p, positions)
	return State{
		Positions:  p,
		Velocities: make([]mgl64.Vec3, len(positions)),
	}
}

func (s State) Len() int { return len(s.Positions) }

func (s State) Clone() State {
	c := State{
		Positions:  make([]mgl64.Vec3, len(s.Positions)),
		Velocities: make([]mgl64.Vec3, len(s.Velocities)),
	}
	copy(c.Positions, s.Positions)
	copy(c.Velocities, s.Velocities)
	return c
}

// Consistent reports whether both buffers have the same length.
func (s State) Consistent() bool {
	return len(s.Positions) == len(s.Velocities)
}

func (s State) IsValid() bool {
	for i := range s.Positions {
		if !finite(s.Positions[i]) {
			return false
		}
	}
	for i := range s.Velocities {
		if !finite(s.Velocities[i]) {
			return false
		}
	}
	return true
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Contacts counts the collisions resolved during one step.
type Contacts struct {
	Wall int
	Pair int
}

// Frame is what metrics and observers see after each step.
type Frame struct {
	Step     int
	Time     float64
	State    State
	Contacts Contacts
}

// ForceSampler returns the force on particle i when it sits at the trial
// position at, with every other particle fixed at snapshot[j].
type ForceSampler interface {
	Force(snapshot []mgl64.Vec3, i int, at mgl64.Vec3) mgl64.Vec3
}

// Integrator advances a single particle by dt and returns its new position
// and velocity. Implementations must not write to snapshot.
type Integrator interface {
	Name() string
	Advance(f ForceSampler, snapshot []mgl64.Vec3, i int, p, v mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }
