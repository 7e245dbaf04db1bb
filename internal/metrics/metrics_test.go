package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
)

func frame(pos, vel []mgl64.Vec3, c dynamo.Contacts) dynamo.Frame {
	return dynamo.Frame{State: dynamo.State{Positions: pos, Velocities: vel}, Contacts: c}
}

func TestKineticEnergy(t *testing.T) {
	m := NewKineticEnergy()
	f := frame(
		[]mgl64.Vec3{{}, {}},
		[]mgl64.Vec3{{1, 0, 0}, {0, 2, 0}},
		dynamo.Contacts{},
	)
	m.Observe(f)

	// (0.5*1 + 0.5*4) / 2
	if got := m.Value(); math.Abs(got-1.25) > 1e-12 {
		t.Errorf("expected 1.25, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestMaxSpeedAndHeight(t *testing.T) {
	f := frame(
		[]mgl64.Vec3{{0, 1, 0}, {0, -0.5, 0}, {0, 0.5, 0}},
		[]mgl64.Vec3{{3, 4, 0}, {1, 0, 0}, {0, 0, 0}},
		dynamo.Contacts{},
	)

	ms := NewMaxSpeed()
	ms.Observe(f)
	if ms.Value() != 5 {
		t.Errorf("expected max speed 5, got %f", ms.Value())
	}

	mh := NewMeanHeight()
	mh.Observe(f)
	if math.Abs(mh.Value()-1.0/3) > 1e-12 {
		t.Errorf("expected mean height 1/3, got %f", mh.Value())
	}
}

func TestContainment(t *testing.T) {
	params := physics.DefaultParams()
	m := NewContainment(params)
	if m.Value() != 1 {
		t.Errorf("expected 1 before any frame, got %f", m.Value())
	}

	f := frame(
		[]mgl64.Vec3{{0, 0, 0}, {1, 1, 1}, {10, 0, 0}, {0, 10, 0}},
		make([]mgl64.Vec3, 4),
		dynamo.Contacts{},
	)
	m.Observe(f)
	if m.Value() != 0.5 {
		t.Errorf("expected containment 0.5, got %f", m.Value())
	}
}

func TestContactRates(t *testing.T) {
	wall, pair := NewWallContacts(), NewPairContacts()
	for _, c := range []dynamo.Contacts{{Wall: 2, Pair: 1}, {Wall: 4, Pair: 0}} {
		f := frame(nil, nil, c)
		wall.Observe(f)
		pair.Observe(f)
	}
	if wall.Value() != 3 {
		t.Errorf("expected 3 wall contacts per frame, got %f", wall.Value())
	}
	if pair.Value() != 0.5 {
		t.Errorf("expected 0.5 pair contacts per frame, got %f", pair.Value())
	}

	wall.Reset()
	if wall.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDefaultNames(t *testing.T) {
	want := []string{"kinetic_energy", "max_speed", "containment", "wall_contacts", "pair_contacts", "mean_height"}
	got := Default(physics.DefaultParams())
	if len(got) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(got))
	}
	for i, m := range got {
		if m.Name() != want[i] {
			t.Errorf("metric %d: expected %s, got %s", i, want[i], m.Name())
		}
	}
}
