package experiment

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/rand"

	"github.com/san-kum/cylsim/internal/config"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/logging"
	"github.com/san-kum/cylsim/internal/sim"
	"github.com/san-kum/cylsim/internal/storage"
)

// Experiment builds a simulation from a Config and runs it headless.
type Experiment struct {
	cfg        *config.Config
	preset     string
	registry   *Registry
	log        logging.Logger
	randSource *rand.Rand

	initial  []mgl64.Vec3
	sim      *sim.Simulation
	runner   *sim.Runner
	metrics  []dynamo.Metric
	recorder *sim.Recorder
}

func New(cfg *config.Config, preset string, registry *Registry, logger logging.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:        cfg,
		preset:     preset,
		registry:   registry,
		log:        logging.OrNop(logger),
		randSource: rand.New(rand.NewSource(uint64(cfg.Seed))),
	}
}

// Setup validates the config, lays out the particles and wires the runner,
// the default metrics and a recorder sampling them every recordEvery frames.
func (e *Experiment) Setup(recordEvery int) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	layout, err := e.registry.GetLayout(e.cfg.Layout)
	if err != nil {
		return err
	}

	params := e.cfg.Params()
	e.initial = layout(e.cfg.Particles, e.randSource, params)

	opts := []sim.Option{sim.WithIntegrator(integ)}
	if e.cfg.Workers > 0 {
		opts = append(opts, sim.WithWorkers(e.cfg.Workers))
	}
	e.sim, err = sim.New(params, e.initial, opts...)
	if err != nil {
		return err
	}

	e.runner = sim.NewRunner(e.sim, sim.RunConfig{
		StepsPerFrame: e.cfg.StepsPerFrame,
		ValidateState: e.cfg.ValidateState,
		Logger:        e.log,
	})
	e.metrics = e.registry.DefaultMetrics(params)
	for _, m := range e.metrics {
		e.runner.AddMetric(m)
	}
	e.recorder = sim.NewRecorder(e.metrics, recordEvery)
	e.runner.AddObserver(e.recorder)

	e.log.Debugf("setup: preset=%s layout=%s integrator=%s particles=%d workers=%d",
		e.preset, e.cfg.Layout, integ.Name(), e.cfg.Particles, e.cfg.Workers)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.runner.Run(ctx, e.cfg.Frames)
}

// Simulation returns the underlying simulation, for stepping it directly
// from a live view.
func (e *Experiment) Simulation() *sim.Simulation { return e.sim }

func (e *Experiment) Runner() *sim.Runner { return e.runner }

func (e *Experiment) Recorder() *sim.Recorder { return e.recorder }

func (e *Experiment) Metrics() []dynamo.Metric { return e.metrics }

// Initial returns the positions the particles started from.
func (e *Experiment) Initial() []mgl64.Vec3 { return e.initial }

// StoredRun packages a finished run for storage.Store.Save.
func (e *Experiment) StoredRun(res *sim.Result) *storage.Run {
	return &storage.Run{
		Meta: storage.RunMetadata{
			Preset:         e.preset,
			Seed:           e.cfg.Seed,
			Particles:      e.cfg.Particles,
			Frames:         res.Frames,
			StepsPerFrame:  e.cfg.StepsPerFrame,
			Steps:          res.Steps,
			Dt:             e.cfg.Physics.Dt,
			Integrator:     e.cfg.Integrator,
			Layout:         e.cfg.Layout,
			Workers:        e.cfg.Workers,
			Physics:        e.cfg.Physics,
			Metrics:        res.Metrics,
			ElapsedSeconds: res.Elapsed.Seconds(),
		},
		Columns: e.recorder.Columns(),
		Series:  e.recorder.Samples(),
		Final:   res.Final,
	}
}
