package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
)

const (
	DefaultCylinderRadius       = 3.0
	DefaultCylinderHeight       = 4.0
	DefaultTimescale            = 0.01
	DefaultDampingFactor        = 0.7
	DefaultRestitution          = 0.8
	DefaultParticleRadius       = 0.05
	DefaultCollisionThreshold   = 0.1
	DefaultDt                   = 0.0001
	DefaultMinDistance          = 0.05
	DefaultCutoffRadius         = 0.5
	DefaultMaxPairForce         = 5.0
	DefaultWallStiffness        = 5.0
	DefaultMaxRadialWallForce   = 15.0
	DefaultMaxVerticalWallForce = 10.0
)

// DefaultGravity points down the cylinder axis.
var DefaultGravity = mgl64.Vec3{0, -9000, 0}

// Params is the immutable configuration of a simulation. The cylinder is
// centred on the origin with its axis along y.
type Params struct {
	CylinderRadius float64
	CylinderHeight float64
	Gravity        mgl64.Vec3
	// Timescale divides the combined pairwise and wall force.
	Timescale     float64
	DampingFactor float64
	Restitution   float64

	ParticleRadius     float64
	CollisionThreshold float64
	Dt                 float64

	MinDistance  float64
	CutoffRadius float64
	MaxPairForce float64

	WallStiffness        float64
	MaxRadialWallForce   float64
	MaxVerticalWallForce float64
}

func DefaultParams() Params {
	return Params{
		CylinderRadius:       DefaultCylinderRadius,
		CylinderHeight:       DefaultCylinderHeight,
		Gravity:              DefaultGravity,
		Timescale:            DefaultTimescale,
		DampingFactor:        DefaultDampingFactor,
		Restitution:          DefaultRestitution,
		ParticleRadius:       DefaultParticleRadius,
		CollisionThreshold:   DefaultCollisionThreshold,
		Dt:                   DefaultDt,
		MinDistance:          DefaultMinDistance,
		CutoffRadius:         DefaultCutoffRadius,
		MaxPairForce:         DefaultMaxPairForce,
		WallStiffness:        DefaultWallStiffness,
		MaxRadialWallForce:   DefaultMaxRadialWallForce,
		MaxVerticalWallForce: DefaultMaxVerticalWallForce,
	}
}

// HalfHeight is the y coordinate of the top cap.
func (p Params) HalfHeight() float64 { return p.CylinderHeight / 2 }

// Validate returns a *dynamo.ConfigError for the first field out of range.
func (p Params) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"cylinder_radius", p.CylinderRadius},
		{"cylinder_height", p.CylinderHeight},
		{"timescale", p.Timescale},
		{"particle_radius", p.ParticleRadius},
		{"collision_threshold", p.CollisionThreshold},
		{"dt", p.Dt},
		{"cutoff_radius", p.CutoffRadius},
	}
	for _, c := range positive {
		if !(c.value > 0) || math.IsInf(c.value, 0) {
			return &dynamo.ConfigError{Field: c.field, Value: c.value, Reason: "must be positive and finite"}
		}
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"min_distance", p.MinDistance},
		{"max_pair_force", p.MaxPairForce},
		{"wall_stiffness", p.WallStiffness},
		{"max_radial_wall_force", p.MaxRadialWallForce},
		{"max_vertical_wall_force", p.MaxVerticalWallForce},
	}
	for _, c := range nonNegative {
		if !(c.value >= 0) || math.IsInf(c.value, 0) {
			return &dynamo.ConfigError{Field: c.field, Value: c.value, Reason: "must be non-negative and finite"}
		}
	}

	if !(p.DampingFactor >= 0 && p.DampingFactor <= 1) {
		return &dynamo.ConfigError{Field: "damping_factor", Value: p.DampingFactor, Reason: "must be in [0, 1]"}
	}
	if !(p.Restitution >= 0 && p.Restitution <= 1) {
		return &dynamo.ConfigError{Field: "restitution", Value: p.Restitution, Reason: "must be in [0, 1]"}
	}
	if p.CylinderRadius <= p.ParticleRadius {
		return &dynamo.ConfigError{Field: "cylinder_radius", Value: p.CylinderRadius, Reason: "must exceed particle_radius"}
	}
	if p.CylinderHeight <= 2*p.ParticleRadius {
		return &dynamo.ConfigError{Field: "cylinder_height", Value: p.CylinderHeight, Reason: "must exceed twice particle_radius"}
	}
	if p.MinDistance >= p.CutoffRadius {
		return &dynamo.ConfigError{Field: "min_distance", Value: p.MinDistance, Reason: "must be below cutoff_radius"}
	}
	for _, c := range p.Gravity {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &dynamo.ConfigError{Field: "gravity", Value: p.Gravity, Reason: "components must be finite"}
		}
	}
	return nil
}

// GetParams exposes the tunable parameters by name, for the live view.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":     p.Gravity.Y(),
		"timescale":   p.Timescale,
		"damping":     p.DampingFactor,
		"restitution": p.Restitution,
	}
}

// WithParam returns a copy of p with one tunable parameter replaced. Names
// match GetParams; "gravity" sets the y component.
func (p Params) WithParam(name string, value float64) (Params, error) {
	switch name {
	case "gravity":
		p.Gravity[1] = value
	case "timescale":
		p.Timescale = value
	case "damping":
		p.DampingFactor = value
	case "restitution":
		p.Restitution = value
	default:
		return p, fmt.Errorf("%w: parameter %q", dynamo.ErrUnknownName, name)
	}
	return p, p.Validate()
}
