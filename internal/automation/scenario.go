// Package automation runs batches of simulations described in YAML.
package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cylsim/internal/config"
	"github.com/san-kum/cylsim/internal/experiment"
	"github.com/san-kum/cylsim/internal/logging"
	"github.com/san-kum/cylsim/internal/sim"
	"github.com/san-kum/cylsim/internal/storage"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a preset; every non-zero field overrides it.
// Params sets tunable physics parameters by name (gravity, damping,
// restitution, timescale).
type ScenarioRun struct {
	Label      string             `yaml:"label"`
	Preset     string             `yaml:"preset"`
	Particles  int                `yaml:"particles"`
	Frames     int                `yaml:"frames"`
	Integrator string             `yaml:"integrator"`
	Layout     string             `yaml:"layout"`
	Seed       int64              `yaml:"seed"`
	Workers    int                `yaml:"workers"`
	Params     map[string]float64 `yaml:"params"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %q has no runs", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the run against its preset ("reference" when unset).
func (r ScenarioRun) Config() (*config.Config, error) {
	preset := r.Preset
	if preset == "" {
		preset = "reference"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}

	if r.Particles != 0 {
		cfg.Particles = r.Particles
	}
	if r.Frames != 0 {
		cfg.Frames = r.Frames
	}
	if r.Integrator != "" {
		cfg.Integrator = r.Integrator
	}
	if r.Layout != "" {
		cfg.Layout = r.Layout
	}
	if r.Seed != 0 {
		cfg.Seed = r.Seed
	}
	if r.Workers != 0 {
		cfg.Workers = r.Workers
	}

	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	params := cfg.Params()
	for _, name := range names {
		var err error
		if params, err = params.WithParam(name, r.Params[name]); err != nil {
			return nil, err
		}
	}
	cfg.Physics = config.FromParams(params)

	return cfg, cfg.Validate()
}

// RunOutcome is the result of one scenario run. RunID is empty when the
// scenario was run without a store.
type RunOutcome struct {
	Label  string
	RunID  string
	Result *sim.Result
}

// RunScenario executes every run in order, saving each to store when store
// is not nil. It stops at the first failing run.
func RunScenario(
	ctx context.Context,
	scenario *Scenario,
	registry *experiment.Registry,
	store *storage.Store,
	logger logging.Logger,
) ([]RunOutcome, error) {
	log := logging.OrNop(logger)
	outcomes := make([]RunOutcome, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		label := run.Label
		if label == "" {
			label = fmt.Sprintf("%s#%d", scenario.Name, i+1)
		}
		log.Infof("scenario %s: run %d/%d (%s)", scenario.Name, i+1, len(scenario.Runs), label)

		cfg, err := run.Config()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, label, registry, log)
		if err := exp.Setup(1); err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		out := RunOutcome{Label: label, Result: result}
		if store != nil {
			if out.RunID, err = store.Save(exp.StoredRun(result)); err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
