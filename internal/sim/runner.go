package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/logging"
)

// RunConfig controls how a Runner drives a Simulation.
type RunConfig struct {
	// StepsPerFrame is the number of Step calls between metric and observer
	// callbacks. Values below 1 are treated as 1.
	StepsPerFrame int
	ValidateState bool
	Logger        logging.Logger
}

type Result struct {
	Frames   int
	Steps    int
	Time     float64
	Elapsed  time.Duration
	Metrics  map[string]float64
	Final    dynamo.State
	Contacts dynamo.Contacts
}

// Runner advances a Simulation frame by frame and feeds every frame to its
// metrics, then its observers.
type Runner struct {
	sim       *Simulation
	cfg       RunConfig
	log       logging.Logger
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func NewRunner(s *Simulation, cfg RunConfig) *Runner {
	if cfg.StepsPerFrame < 1 {
		cfg.StepsPerFrame = 1
	}
	return &Runner{
		sim: s,
		cfg: cfg,
		log: logging.OrNop(cfg.Logger),
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Simulation() *Simulation { return r.sim }

// Run executes frames frames. Cancellation is checked between steps, never
// inside one; on cancellation or invalid state the partial result is
// returned with the error.
func (r *Runner) Run(ctx context.Context, frames int) (*Result, error) {
	if frames <= 0 {
		return nil, &dynamo.ConfigError{Field: "frames", Value: frames, Reason: "must be positive"}
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	start := time.Now()
	result := &Result{Metrics: make(map[string]float64, len(r.metrics))}
	finish := func() *Result {
		result.Steps = r.sim.Steps()
		result.Time = r.sim.Time()
		result.Elapsed = time.Since(start)
		result.Final = r.sim.State()
		result.Contacts = r.sim.LastContacts()
		for _, m := range r.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
		return result
	}

	r.log.Debugf("run: %d frames x %d steps, %d particles, integrator=%s",
		frames, r.cfg.StepsPerFrame, r.sim.NumParticles(), r.sim.Integrator().Name())

	logEvery := max(frames/10, 1)
	for f := 0; f < frames; f++ {
		var contacts dynamo.Contacts
		for k := 0; k < r.cfg.StepsPerFrame; k++ {
			select {
			case <-ctx.Done():
				return finish(), fmt.Errorf("%w at step %d: %w", dynamo.ErrContextCanceled, r.sim.Steps(), ctx.Err())
			default:
			}
			r.sim.Step()
			c := r.sim.LastContacts()
			contacts.Wall += c.Wall
			contacts.Pair += c.Pair
		}

		if r.cfg.ValidateState && !r.sim.state.IsValid() {
			err := &dynamo.SimulationError{Step: r.sim.Steps(), Time: r.sim.Time(), Wrapped: dynamo.ErrInvalidState}
			r.log.Errorf("%v", err)
			return finish(), err
		}

		frame := r.sim.Frame()
		frame.Contacts = contacts
		for _, m := range r.metrics {
			m.Observe(frame)
		}
		for _, o := range r.observers {
			o.OnFrame(frame)
		}
		result.Frames++

		if (f+1)%logEvery == 0 {
			r.log.Debugf("frame %d/%d t=%.4f contacts wall=%d pair=%d", f+1, frames, frame.Time, contacts.Wall, contacts.Pair)
		}
	}

	res := finish()
	r.log.Debugf("run done: %d steps in %v", res.Steps, res.Elapsed)
	return res, nil
}
