package metrics

import (
	"github.com/san-kum/cylsim/internal/dynamo"
)

// KineticEnergy is the mean per-particle kinetic energy 0.5*|v|^2 (unit
// mass) at the most recent frame.
type KineticEnergy struct {
	value float64
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (k *KineticEnergy) Name() string { return "kinetic_energy" }

func (k *KineticEnergy) Observe(f dynamo.Frame) {
	n := len(f.State.Velocities)
	if n == 0 {
		k.value = 0
		return
	}
	sum := 0.0
	for _, v := range f.State.Velocities {
		sum += 0.5 * v.Dot(v)
	}
	k.value = sum / float64(n)
}

func (k *KineticEnergy) Value() float64 { return k.value }
func (k *KineticEnergy) Reset()         { k.value = 0 }

// MaxSpeed is the largest particle speed seen at the most recent frame.
type MaxSpeed struct {
	value float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(f dynamo.Frame) {
	m.value = 0
	for _, v := range f.State.Velocities {
		if s := v.Len(); s > m.value {
			m.value = s
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.value }
func (m *MaxSpeed) Reset()         { m.value = 0 }

// MeanHeight is the mean y coordinate at the most recent frame.
type MeanHeight struct {
	value float64
}

func NewMeanHeight() *MeanHeight { return &MeanHeight{} }

func (m *MeanHeight) Name() string { return "mean_height" }

func (m *MeanHeight) Observe(f dynamo.Frame) {
	n := len(f.State.Positions)
	if n == 0 {
		m.value = 0
		return
	}
	sum := 0.0
	for _, p := range f.State.Positions {
		sum += p.Y()
	}
	m.value = sum / float64(n)
}

func (m *MeanHeight) Value() float64 { return m.value }
func (m *MeanHeight) Reset()         { m.value = 0 }
