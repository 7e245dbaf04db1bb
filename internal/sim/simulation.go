package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/integrators"
	"github.com/san-kum/cylsim/internal/physics"
)

// minChunk keeps tiny particle counts on the calling goroutine.
const minChunk = 64

// Simulation owns the particle buffers and advances them one fixed timestep
// per Step. It is not safe for concurrent use.
type Simulation struct {
	params     physics.Params
	field      *physics.ForceField
	resolver   *physics.Resolver
	integrator dynamo.Integrator
	workers    int

	state    dynamo.State
	snapshot []mgl64.Vec3

	steps    int
	time     float64
	contacts dynamo.Contacts
}

type Option func(*Simulation)

// WithIntegrator replaces the default RK4 integrator.
func WithIntegrator(integ dynamo.Integrator) Option {
	return func(s *Simulation) {
		if integ != nil {
			s.integrator = integ
		}
	}
}

// WithWorkers fans the integration phase out over n goroutines. Collision
// resolution always stays serial.
func WithWorkers(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New validates params and returns a simulation with the particles at
// initial (copied) and at rest.
func New(params physics.Params, initial []mgl64.Vec3, opts ...Option) (*Simulation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(initial) == 0 {
		return nil, &dynamo.ConfigError{Field: "particles", Value: 0, Reason: "must be positive"}
	}
	st := dynamo.NewState(initial)
	if !st.IsValid() {
		return nil, fmt.Errorf("initial positions: %w", dynamo.ErrInvalidState)
	}

	s := &Simulation{
		params:     params,
		field:      physics.NewForceField(params),
		resolver:   physics.NewResolver(params),
		integrator: integrators.NewRK4(),
		workers:    1,
		state:      st,
		snapshot:   make([]mgl64.Vec3, len(initial)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Step advances the simulation by one timestep: container collisions,
// pairwise collisions, integration of every particle against the positions
// frozen after collisions, then the gravity impulse.
func (s *Simulation) Step() {
	s.contacts = s.resolver.Resolve(&s.state)

	copy(s.snapshot, s.state.Positions)

	dt := s.params.Dt
	gravity := s.params.Gravity.Mul(dt)
	dynamo.ParallelFor(len(s.snapshot), s.workers, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p, v := s.integrator.Advance(s.field, s.snapshot, i, s.snapshot[i], s.state.Velocities[i], dt)
			s.state.Positions[i] = p
			s.state.Velocities[i] = v.Add(gravity)
		}
	})

	s.steps++
	s.time = float64(s.steps) * dt
}

func (s *Simulation) NumParticles() int { return s.state.Len() }

func (s *Simulation) Params() physics.Params { return s.params }

func (s *Simulation) Integrator() dynamo.Integrator { return s.integrator }

// Steps is the number of completed steps.
func (s *Simulation) Steps() int { return s.steps }

// Time is the simulated time, Steps() * Dt.
func (s *Simulation) Time() float64 { return s.time }

// LastContacts reports the collisions resolved by the most recent Step.
func (s *Simulation) LastContacts() dynamo.Contacts { return s.contacts }

// Positions returns a copy of the current positions.
func (s *Simulation) Positions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(s.state.Positions))
	copy(out, s.state.Positions)
	return out
}

// Velocities returns a copy of the current velocities.
func (s *Simulation) Velocities() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(s.state.Velocities))
	copy(out, s.state.Velocities)
	return out
}

// State returns a deep copy of both buffers.
func (s *Simulation) State() dynamo.State { return s.state.Clone() }

// FillPositions writes the positions as a flat xyz float32 buffer, the
// layout instanced renderers expect. dst is reused when large enough.
func (s *Simulation) FillPositions(dst []float32) []float32 {
	n := 3 * len(s.state.Positions)
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i, p := range s.state.Positions {
		dst[i*3] = float32(p.X())
		dst[i*3+1] = float32(p.Y())
		dst[i*3+2] = float32(p.Z())
	}
	return dst
}

// Frame describes the simulation after the most recent step. Its state
// aliases the live buffers and is valid until the next Step.
func (s *Simulation) Frame() dynamo.Frame {
	return dynamo.Frame{
		Step:     s.steps,
		Time:     s.time,
		State:    s.state,
		Contacts: s.contacts,
	}
}

// Inside reports whether particle p lies fully within the container.
func (s *Simulation) Inside(p mgl64.Vec3) bool { return s.resolver.Inside(p) }

// Retune returns a new simulation that continues from the current state,
// step count and integrator under different params. s is left untouched.
func (s *Simulation) Retune(params physics.Params) (*Simulation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		params:     params,
		field:      physics.NewForceField(params),
		resolver:   physics.NewResolver(params),
		integrator: s.integrator,
		workers:    s.workers,
		state:      s.state.Clone(),
		snapshot:   make([]mgl64.Vec3, len(s.snapshot)),
		steps:      s.steps,
		time:       s.time,
		contacts:   s.contacts,
	}, nil
}
