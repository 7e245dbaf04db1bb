package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
	"github.com/san-kum/cylsim/internal/sim"
)

type DivergenceResult struct {
	Times      []float64
	Separation []float64
	// Exponent is the least-squares slope of ln(separation) over time.
	Exponent float64
}

// Divergence runs the system twice, the second time with particle 0 moved
// by perturbation along x, and records the RMS position separation after
// every step.
func Divergence(
	ctx context.Context,
	params physics.Params,
	initial []mgl64.Vec3,
	integ dynamo.Integrator,
	steps int,
	perturbation float64,
) (*DivergenceResult, error) {
	if len(initial) == 0 || steps <= 0 || perturbation <= 0 {
		return nil, &dynamo.ConfigError{Field: "divergence", Value: steps, Reason: "needs particles, steps and a positive perturbation"}
	}

	shifted := make([]mgl64.Vec3, len(initial))
	copy(shifted, initial)
	shifted[0][0] += perturbation

	a, err := sim.New(params, initial, sim.WithIntegrator(integ))
	if err != nil {
		return nil, err
	}
	b, err := sim.New(params, shifted, sim.WithIntegrator(integ))
	if err != nil {
		return nil, err
	}

	res := &DivergenceResult{
		Times:      make([]float64, 0, steps),
		Separation: make([]float64, 0, steps),
	}
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
		}
		a.Step()
		b.Step()
		res.Times = append(res.Times, a.Time())
		res.Separation = append(res.Separation, rmsSeparation(a.Positions(), b.Positions()))
	}

	res.Exponent = logSlope(res.Times, res.Separation)
	return res, nil
}

func rmsSeparation(p, q []mgl64.Vec3) float64 {
	sum := 0.0
	for i := range p {
		d := p[i].Sub(q[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(p)))
}

// logSlope fits ln(y) = a + b*t over the points with y > 0 and returns b.
func logSlope(t, y []float64) float64 {
	var n, st, sy, stt, sty float64
	for i := range t {
		if y[i] <= 0 {
			continue
		}
		ly := math.Log(y[i])
		n++
		st += t[i]
		sy += ly
		stt += t[i] * t[i]
		sty += t[i] * ly
	}
	den := n*stt - st*st
	if n < 2 || den == 0 {
		return 0
	}
	return (n*sty - st*sy) / den
}
