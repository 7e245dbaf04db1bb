// Package optim searches the tunable physics parameters for the values that
// optimize a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
	"github.com/san-kum/cylsim/internal/sim"
)

// Evaluator runs the system under params and returns its final metrics.
type Evaluator func(ctx context.Context, params physics.Params) (map[string]float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

// NewGridSearch tries every combination of ranges[i] for paramNames[i].
// Names are those accepted by physics.Params.WithParam.
func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search keep the largest metric value instead of the
// smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Result holds the best point. Every grid point counts once, as Evaluated
// when it produced a usable metric and as Skipped otherwise.
type Result struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Skipped   int
}

// Search evaluates every grid point built on top of base. Points whose
// params fail validation are skipped; a context error aborts the search.
func (g *GridSearch) Search(ctx context.Context, base physics.Params, eval Evaluator, metricName string) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", dynamo.ErrDimensionMismatch, len(g.paramNames), len(g.ranges))
	}

	res := &Result{Value: math.Inf(1)}
	if g.maximize {
		res.Value = math.Inf(-1)
	}
	if err := g.searchRecursive(ctx, 0, base, make(map[string]float64), eval, metricName, res); err != nil {
		return res, err
	}
	if res.Params == nil {
		return res, fmt.Errorf("no grid point produced metric %q", metricName)
	}
	return res, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if g.maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	params physics.Params,
	current map[string]float64,
	eval Evaluator,
	metricName string,
	res *Result,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}

	if depth == len(g.paramNames) {
		metrics, err := eval(ctx, params)
		if err != nil {
			if errors.Is(err, dynamo.ErrContextCanceled) {
				return err
			}
			res.Skipped++
			return nil
		}

		val, ok := metrics[metricName]
		if !ok || math.IsNaN(val) {
			res.Skipped++
			return nil
		}
		res.Evaluated++
		if res.Params == nil || g.better(val, res.Value) {
			res.Value = val
			res.Params = make(map[string]float64, len(current))
			for k, v := range current {
				res.Params[k] = v
			}
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next, err := params.WithParam(name, val)
		if errors.Is(err, dynamo.ErrUnknownName) {
			return err
		}
		if err != nil {
			res.Skipped++
			continue
		}
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, current, eval, metricName, res); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

// RunEvaluator returns an Evaluator that runs frames frames from initial
// with a fresh metric set per grid point.
func RunEvaluator(
	initial []mgl64.Vec3,
	integ dynamo.Integrator,
	frames int,
	newMetrics func(physics.Params) []dynamo.Metric,
) Evaluator {
	return func(ctx context.Context, params physics.Params) (map[string]float64, error) {
		s, err := sim.New(params, initial, sim.WithIntegrator(integ))
		if err != nil {
			return nil, err
		}
		r := sim.NewRunner(s, sim.RunConfig{ValidateState: true})
		for _, m := range newMetrics(params) {
			r.AddMetric(m)
		}
		res, err := r.Run(ctx, frames)
		if err != nil {
			return nil, err
		}
		return res.Metrics, nil
	}
}
