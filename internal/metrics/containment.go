package metrics

import (
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
)

// Containment is the fraction of particles lying fully inside the cylinder
// at the most recent frame. 1 means nothing escaped.
type Containment struct {
	resolver *physics.Resolver
	value    float64
}

func NewContainment(params physics.Params) *Containment {
	return &Containment{resolver: physics.NewResolver(params), value: 1}
}

func (c *Containment) Name() string { return "containment" }

func (c *Containment) Observe(f dynamo.Frame) {
	n := len(f.State.Positions)
	if n == 0 {
		c.value = 1
		return
	}
	inside := 0
	for _, p := range f.State.Positions {
		if c.resolver.Inside(p) {
			inside++
		}
	}
	c.value = float64(inside) / float64(n)
}

func (c *Containment) Value() float64 { return c.value }
func (c *Containment) Reset()         { c.value = 1 }
