package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
)

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
		field  string
	}{
		{"negative radius", func(p *Params) { p.CylinderRadius = -1 }, "cylinder_radius"},
		{"zero height", func(p *Params) { p.CylinderHeight = 0 }, "cylinder_height"},
		{"zero timescale", func(p *Params) { p.Timescale = 0 }, "timescale"},
		{"NaN dt", func(p *Params) { p.Dt = math.NaN() }, "dt"},
		{"damping above one", func(p *Params) { p.DampingFactor = 1.5 }, "damping_factor"},
		{"negative restitution", func(p *Params) { p.Restitution = -0.1 }, "restitution"},
		{"radius smaller than particle", func(p *Params) { p.CylinderRadius = 0.04 }, "cylinder_radius"},
		{"height smaller than particle", func(p *Params) { p.CylinderHeight = 0.08 }, "cylinder_height"},
		{"min distance past cutoff", func(p *Params) { p.MinDistance = 0.6 }, "min_distance"},
		{"negative wall stiffness", func(p *Params) { p.WallStiffness = -5 }, "wall_stiffness"},
		{"infinite gravity", func(p *Params) { p.Gravity = mgl64.Vec3{0, math.Inf(-1), 0} }, "gravity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			var cerr *dynamo.ConfigError
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestHalfHeight(t *testing.T) {
	p := DefaultParams()
	if p.HalfHeight() != 2 {
		t.Errorf("HalfHeight() = %v, want 2", p.HalfHeight())
	}
}

func TestWithParam(t *testing.T) {
	base := DefaultParams()

	p, err := base.WithParam("restitution", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Restitution != 0.5 || base.Restitution != DefaultRestitution {
		t.Errorf("expected copy with restitution 0.5, got %f (base %f)", p.Restitution, base.Restitution)
	}

	p, err = base.WithParam("gravity", -10)
	if err != nil {
		t.Fatal(err)
	}
	if p.GetParams()["gravity"] != -10 {
		t.Errorf("expected gravity -10, got %v", p.Gravity)
	}

	if _, err := base.WithParam("damping", 2); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := base.WithParam("spin", 1); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestGetParamsRoundTrip(t *testing.T) {
	p := DefaultParams()
	for name, value := range p.GetParams() {
		q, err := p.WithParam(name, value)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if q != p {
			t.Errorf("%s: setting the current value changed params", name)
		}
	}
}
