package analysis

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
	"github.com/san-kum/cylsim/internal/sim"
)

// SweepPoint holds the final metric values for one parameter value.
type SweepPoint struct {
	Param   float64
	Metrics map[string]float64
}

// Sweep varies one tunable parameter (see physics.Params.GetParams) over
// values, running frames frames from the same initial positions each time.
// newMetrics is called once per point so runs never share metric state.
func Sweep(
	ctx context.Context,
	base physics.Params,
	initial []mgl64.Vec3,
	integ dynamo.Integrator,
	param string,
	values []float64,
	frames int,
	newMetrics func(physics.Params) []dynamo.Metric,
) ([]SweepPoint, error) {
	points := make([]SweepPoint, 0, len(values))
	for _, v := range values {
		params, err := base.WithParam(param, v)
		if err != nil {
			return points, err
		}
		s, err := sim.New(params, initial, sim.WithIntegrator(integ))
		if err != nil {
			return points, err
		}
		r := sim.NewRunner(s, sim.RunConfig{})
		for _, m := range newMetrics(params) {
			r.AddMetric(m)
		}
		res, err := r.Run(ctx, frames)
		if err != nil {
			return points, err
		}
		points = append(points, SweepPoint{Param: v, Metrics: res.Metrics})
	}
	return points, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
