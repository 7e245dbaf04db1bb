package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/rand"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/integrators"
	"github.com/san-kum/cylsim/internal/metrics"
	"github.com/san-kum/cylsim/internal/physics"
)

// Layout places n particles inside the container described by params.
type Layout func(n int, rng *rand.Rand, params physics.Params) []mgl64.Vec3

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	layouts     map[string]Layout
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		layouts:     make(map[string]Layout),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }

	r.RegisterLayout("uniform", UniformCube)
	r.RegisterLayout("lattice", Lattice)

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: integrator %q", dynamo.ErrUnknownName, name)
	}
	return fn(), nil
}

func (r *Registry) GetLayout(name string) (Layout, error) {
	fn, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: layout %q", dynamo.ErrUnknownName, name)
	}
	return fn, nil
}

// RegisterLayout adds or replaces a named layout.
func (r *Registry) RegisterLayout(name string, l Layout) { r.layouts[name] = l }

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListLayouts() []string     { return sortedKeys(r.layouts) }

func (r *Registry) DefaultMetrics(params physics.Params) []dynamo.Metric {
	return metrics.Default(params)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UniformCube scatters particles uniformly in [-1, 1]^3.
func UniformCube(n int, rng *rand.Rand, _ physics.Params) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, n)
	for i := range out {
		out[i] = mgl64.Vec3{
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
		}
	}
	return out
}

// Lattice fills a centred cube, inscribed in the container, row by row.
// The rng is unused.
func Lattice(n int, _ *rand.Rand, params physics.Params) []mgl64.Vec3 {
	if n <= 0 {
		return nil
	}
	k := int(math.Ceil(math.Cbrt(float64(n))))
	side := 0.9 * math.Min(
		math.Sqrt2*(params.CylinderRadius-params.ParticleRadius),
		params.CylinderHeight-2*params.ParticleRadius,
	)
	spacing := side / float64(k)
	origin := -side/2 + spacing/2

	out := make([]mgl64.Vec3, 0, n)
	for iy := 0; iy < k && len(out) < n; iy++ {
		for iz := 0; iz < k && len(out) < n; iz++ {
			for ix := 0; ix < k && len(out) < n; ix++ {
				out = append(out, mgl64.Vec3{
					origin + float64(ix)*spacing,
					origin + float64(iy)*spacing,
					origin + float64(iz)*spacing,
				})
			}
		}
	}
	return out
}
