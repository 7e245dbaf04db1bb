package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
)

const (
	DefaultParticles     = 1000
	DefaultFrames        = 600
	DefaultStepsPerFrame = 1
	DefaultLayout        = "uniform"
	DefaultIntegrator    = "rk4"
	DefaultSeed          = 1
)

type Config struct {
	Particles     int           `yaml:"particles"`
	Layout        string        `yaml:"layout"`
	Integrator    string        `yaml:"integrator"`
	Frames        int           `yaml:"frames"`
	StepsPerFrame int           `yaml:"steps_per_frame"`
	Seed          int64         `yaml:"seed"`
	Workers       int           `yaml:"workers"`
	ValidateState bool          `yaml:"validate_state"`
	Physics       PhysicsConfig `yaml:"physics"`
}

// PhysicsConfig mirrors physics.Params field for field.
type PhysicsConfig struct {
	CylinderRadius       float64    `yaml:"cylinder_radius" json:"cylinder_radius"`
	CylinderHeight       float64    `yaml:"cylinder_height" json:"cylinder_height"`
	Gravity              [3]float64 `yaml:"gravity,flow" json:"gravity"`
	Timescale            float64    `yaml:"timescale" json:"timescale"`
	DampingFactor        float64    `yaml:"damping_factor" json:"damping_factor"`
	Restitution          float64    `yaml:"restitution" json:"restitution"`
	ParticleRadius       float64    `yaml:"particle_radius" json:"particle_radius"`
	CollisionThreshold   float64    `yaml:"collision_threshold" json:"collision_threshold"`
	Dt                   float64    `yaml:"dt" json:"dt"`
	MinDistance          float64    `yaml:"min_distance" json:"min_distance"`
	CutoffRadius         float64    `yaml:"cutoff_radius" json:"cutoff_radius"`
	MaxPairForce         float64    `yaml:"max_pair_force" json:"max_pair_force"`
	WallStiffness        float64    `yaml:"wall_stiffness" json:"wall_stiffness"`
	MaxRadialWallForce   float64    `yaml:"max_radial_wall_force" json:"max_radial_wall_force"`
	MaxVerticalWallForce float64    `yaml:"max_vertical_wall_force" json:"max_vertical_wall_force"`
}

func FromParams(p physics.Params) PhysicsConfig {
	return PhysicsConfig{
		CylinderRadius:       p.CylinderRadius,
		CylinderHeight:       p.CylinderHeight,
		Gravity:              [3]float64(p.Gravity),
		Timescale:            p.Timescale,
		DampingFactor:        p.DampingFactor,
		Restitution:          p.Restitution,
		ParticleRadius:       p.ParticleRadius,
		CollisionThreshold:   p.CollisionThreshold,
		Dt:                   p.Dt,
		MinDistance:          p.MinDistance,
		CutoffRadius:         p.CutoffRadius,
		MaxPairForce:         p.MaxPairForce,
		WallStiffness:        p.WallStiffness,
		MaxRadialWallForce:   p.MaxRadialWallForce,
		MaxVerticalWallForce: p.MaxVerticalWallForce,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Particles:     DefaultParticles,
		Layout:        DefaultLayout,
		Integrator:    DefaultIntegrator,
		Frames:        DefaultFrames,
		StepsPerFrame: DefaultStepsPerFrame,
		Seed:          DefaultSeed,
		Workers:       1,
		ValidateState: true,
		Physics:       FromParams(physics.DefaultParams()),
	}
}

// Load overlays the YAML file at path on DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the physics block.
func (c *Config) Params() physics.Params { return c.Physics.Params() }

func (ph PhysicsConfig) Params() physics.Params {
	return physics.Params{
		CylinderRadius:       ph.CylinderRadius,
		CylinderHeight:       ph.CylinderHeight,
		Gravity:              mgl64.Vec3(ph.Gravity),
		Timescale:            ph.Timescale,
		DampingFactor:        ph.DampingFactor,
		Restitution:          ph.Restitution,
		ParticleRadius:       ph.ParticleRadius,
		CollisionThreshold:   ph.CollisionThreshold,
		Dt:                   ph.Dt,
		MinDistance:          ph.MinDistance,
		CutoffRadius:         ph.CutoffRadius,
		MaxPairForce:         ph.MaxPairForce,
		WallStiffness:        ph.WallStiffness,
		MaxRadialWallForce:   ph.MaxRadialWallForce,
		MaxVerticalWallForce: ph.MaxVerticalWallForce,
	}
}

// Validate checks the run-level fields, then the physics block.
// Integrator and layout names are resolved later by the experiment registry.
func (c *Config) Validate() error {
	switch {
	case c.Particles <= 0:
		return &dynamo.ConfigError{Field: "particles", Value: c.Particles, Reason: "must be positive"}
	case c.Frames <= 0:
		return &dynamo.ConfigError{Field: "frames", Value: c.Frames, Reason: "must be positive"}
	case c.StepsPerFrame < 0:
		return &dynamo.ConfigError{Field: "steps_per_frame", Value: c.StepsPerFrame, Reason: "must not be negative"}
	case c.Workers < 0:
		return &dynamo.ConfigError{Field: "workers", Value: c.Workers, Reason: "must not be negative"}
	case c.Layout == "":
		return &dynamo.ConfigError{Field: "layout", Value: c.Layout, Reason: "must be set"}
	case c.Integrator == "":
		return &dynamo.ConfigError{Field: "integrator", Value: c.Integrator, Reason: "must be set"}
	}
	return c.Params().Validate()
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
