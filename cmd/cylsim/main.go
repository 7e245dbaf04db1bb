package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cylsim/internal/analysis"
	"github.com/san-kum/cylsim/internal/automation"
	"github.com/san-kum/cylsim/internal/config"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/experiment"
	"github.com/san-kum/cylsim/internal/export"
	"github.com/san-kum/cylsim/internal/logging"
	"github.com/san-kum/cylsim/internal/metrics"
	"github.com/san-kum/cylsim/internal/optim"
	"github.com/san-kum/cylsim/internal/storage"
	"github.com/san-kum/cylsim/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile    string
	particles     int
	frames        int
	stepsPerFrame int
	integrator    string
	layout        string
	seed          int64
	workers       int
	recordEvery   int
	noSave        bool
	progress      bool

	// live view
	frameRate int
	theme     string

	column     string
	plotSVG    string
	benchSizes []int
	benchProcs []int
	benchCount int
	initPreset string

	sweepFrom   float64
	sweepTo     float64
	sweepPoints int

	divergeSteps int
	perturbation float64

	tuneMetric   string
	tuneMaximize bool

	renderView string
	renderOut  string
	renderSize int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cylsim",
		Short:        "particles in a cylinder: simulate, watch, analyze",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cylsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation headless and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to run")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "sample metrics every n frames")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&progress, "progress", false, "print progress to stderr")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", "ocean", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics and the final height distribution",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write each series as <dir>/<column>.svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "kinetic_energy", "series column to analyze")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure steps per second across particle and worker counts",
		RunE:  benchSteps,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{100, 500, 1000}, "particle counts")
	benchCmd.Flags().IntSliceVar(&benchProcs, "workers", []int{1, 4}, "worker counts")
	benchCmd.Flags().IntVar(&benchCount, "steps", 20, "steps per measurement")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same initial particles",
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)
	compareCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to run")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "sweep a tunable parameter and report final metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepParam,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames per point")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1.0, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")

	divergeCmd := &cobra.Command{
		Use:   "diverge [preset]",
		Short: "measure how fast a small perturbation grows",
		Args:  cobra.MaximumNArgs(1),
		RunE:  divergeRun,
	}
	addSimFlags(divergeCmd)
	divergeCmd.Flags().IntVar(&divergeSteps, "steps", 2000, "steps to run")
	divergeCmd.Flags().Float64Var(&perturbation, "eps", 1e-6, "initial displacement of particle 0")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a preset as a yaml config file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&initPreset, "preset", "reference", "preset to write")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every entry of a yaml scenario and save each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	tuneCmd := &cobra.Command{
		Use:   "tune [name=lo:hi:n...]",
		Short: "grid search tunable parameters for the best final metric",
		Args:  cobra.MinimumNArgs(1),
		RunE:  tuneParams,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&frames, "frames", 100, "frames per grid point")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "kinetic_energy", "metric to optimize")
	tuneCmd.Flags().BoolVar(&tuneMaximize, "maximize", false, "maximize instead of minimize")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render the final particles of a run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&renderView, "view", "side", "projection (side, top, braille)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default <run_id>.svg)")
	renderCmd.Flags().IntVar(&renderSize, "size", 600, "image width in pixels")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCmd,
		benchCmd, compareCmd, sweepCmd, divergeCmd, presetsCmd, initCmd,
		scenarioCmd, tuneCmd, renderCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVarP(&particles, "particles", "n", config.DefaultParticles, "number of particles")
	cmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", config.DefaultStepsPerFrame, "steps between frames")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rk4, euler, verlet)")
	cmd.Flags().StringVar(&layout, "layout", config.DefaultLayout, "initial layout (uniform, lattice)")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 1, "integration goroutines")
}

func newLogger() logging.Logger {
	return logging.New("cylsim", verbose)
}

// loadConfig resolves the preset, then the config file, then any flag set
// explicitly on the command line.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "reference"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = "file:" + configFile
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("steps-per-frame") {
		cfg.StepsPerFrame = stepsPerFrame
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("layout") {
		cfg.Layout = layout
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger()

	exp := experiment.New(cfg, name, experiment.NewRegistry(), log)
	if err := exp.Setup(recordEvery); err != nil {
		return err
	}

	fmt.Printf("running %s: %d particles, %d frames x %d steps, %s\n",
		name, cfg.Particles, cfg.Frames, max(cfg.StepsPerFrame, 1), cfg.Integrator)
	if progress {
		exp.Runner().AddObserver(progressObserver(os.Stderr, cfg.Frames*max(cfg.StepsPerFrame, 1)))
	}

	result, runErr := exp.Run(cmd.Context())
	if runErr != nil && result == nil {
		return runErr
	}
	if runErr != nil {
		log.Warnf("run stopped early: %v", runErr)
	}

	fmt.Printf("completed %d steps in %v (%.0f steps/s)\n",
		result.Steps, result.Elapsed.Round(time.Millisecond), float64(result.Steps)/result.Elapsed.Seconds())
	printMetrics(result.Metrics)

	if noSave {
		return runErr
	}
	st := storage.New(dataDir, log)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(exp.StoredRun(result))
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return runErr
}

// progressObserver writes the completed share of totalSteps to w each time
// it crosses another 10%.
func progressObserver(w io.Writer, totalSteps int) dynamo.Observer {
	last := -1
	return dynamo.ObserverFunc(func(f dynamo.Frame) {
		decile := 10 * f.Step / max(totalSteps, 1)
		if decile == last {
			return
		}
		last = decile
		fmt.Fprintf(w, "\r%3d%% step %d t=%.4f", 10*decile, f.Step, f.Time)
		if f.Step >= totalSteps {
			fmt.Fprintln(w)
		}
	})
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-16s %.6g\n", name, values[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		choice, err := viz.Pick(config.ListPresets())
		if err != nil {
			return err
		}
		if choice == "" {
			return nil
		}
		args = []string{choice}
	}

	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, name, experiment.NewRegistry(), newLogger())
	if err := exp.Setup(1); err != nil {
		return err
	}

	steps := cfg.StepsPerFrame
	if !cmd.Flags().Changed("steps-per-frame") {
		steps = 0
	}
	m, err := viz.NewModel(exp.Simulation(), viz.Options{
		Preset:        name,
		StepsPerFrame: steps,
		FPS:           frameRate,
		Theme:         theme,
	})
	if err != nil {
		return err
	}
	return viz.RunLive(m)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, newLogger())
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tPARTICLES\tSTEPS\tDT\tINTEG\tCONTAINED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%s\t%.1f%%\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.Dt,
			run.Integrator,
			100*run.Metrics["containment"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir, newLogger())

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	columns, samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s  particles: %d  integrator: %s\n", meta.Preset, meta.Particles, meta.Integrator)
	fmt.Printf("samples: %d\n\n", len(samples))

	if plotSVG != "" {
		if err := os.MkdirAll(plotSVG, 0755); err != nil {
			return err
		}
	}
	times := make([]float64, len(samples))
	for i, smp := range samples {
		times[i] = smp.Time
	}

	for _, c := range columns {
		data, _ := storage.Column(columns, samples, c)
		if len(data) < 2 {
			continue
		}
		if plotSVG != "" {
			svg := export.SeriesToSVG(times, data, 800, 240, string(viz.ThemeOcean.Primary))
			if err := os.WriteFile(filepath.Join(plotSVG, c+".svg"), []byte(svg), 0644); err != nil {
				return err
			}
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(strings.ReplaceAll(c, "_", " ")),
		))
		fmt.Println()
	}

	if !st.HasSnapshot(runID) {
		return nil
	}
	snap, err := st.LoadSnapshot(runID)
	if err != nil {
		return err
	}
	half := meta.Physics.CylinderHeight / 2
	fmt.Println("final height distribution:")
	fmt.Print(analysis.NewHistogram(analysis.Heights(snap.Positions), 12, -half, half).ASCII(50))
	fmt.Println("\nfinal radial distribution:")
	fmt.Print(analysis.NewHistogram(analysis.Radii(snap.Positions), 12, 0, meta.Physics.CylinderRadius).ASCII(50))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir, newLogger())

	columns, samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	data, ok := storage.Column(columns, samples, column)
	if !ok {
		return fmt.Errorf("%w: column %q (available: %v)", dynamo.ErrUnknownName, column, columns)
	}
	if len(samples) < 4 {
		return fmt.Errorf("need at least 4 samples, have %d", len(samples))
	}

	sampleDt := (samples[len(samples)-1].Time - samples[0].Time) / float64(len(samples)-1)
	ps := analysis.PowerSpectrum(data)

	fmt.Printf("power spectrum of %s (%d samples, dt=%g)\n\n", column, len(data), sampleDt)
	fmt.Println(asciigraph.Plot(ps[1:],
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("magnitude by frequency bin"),
	))
	fmt.Printf("\ndominant frequency: %.4g per unit time\n", analysis.DominantFrequency(data, sampleDt))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir, newLogger()).ExportJSON(os.Stdout, args[0])
}

func benchSteps(cmd *cobra.Command, args []string) error {
	if benchCount <= 0 {
		return &dynamo.ConfigError{Field: "steps", Value: benchCount, Reason: "must be positive"}
	}
	registry := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC")
	for _, n := range benchSizes {
		cfg := config.DefaultConfig()
		cfg.Particles = n
		cfg.Frames = benchCount
		cfg.ValidateState = false
		for _, nw := range benchProcs {
			cfg.Workers = nw
			exp := experiment.New(cfg, "bench", registry, newLogger())
			if err := exp.Setup(benchCount); err != nil {
				return err
			}
			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\n",
				n, nw, result.Steps, result.Elapsed.Round(time.Microsecond),
				float64(result.Steps)/result.Elapsed.Seconds())
		}
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	names := args
	if len(names) == 0 {
		names = registry.ListIntegrators()
	}

	fmt.Printf("comparing %v on %s (%d particles, %d frames, seed %d)\n\n",
		names, name, cfg.Particles, cfg.Frames, cfg.Seed)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tKINETIC\tMAX SPEED\tCONTAINED\tMEAN Y\tTIME")
	for _, integName := range names {
		c := cfg.Clone()
		c.Integrator = integName
		exp := experiment.New(c, name, registry, newLogger())
		if err := exp.Setup(c.Frames); err != nil {
			return err
		}
		result, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}
		m := result.Metrics
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.1f%%\t%.4f\t%v\n",
			integName, m["kinetic_energy"], m["max_speed"], 100*m["containment"], m["mean_height"],
			result.Elapsed.Round(time.Millisecond))
	}
	return w.Flush()
}

func sweepParam(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, name, registry, newLogger())
	if err := exp.Setup(cfg.Frames); err != nil {
		return err
	}

	points, err := analysis.Sweep(cmd.Context(), cfg.Params(), exp.Initial(), integ,
		args[0], analysis.Linspace(sweepFrom, sweepTo, sweepPoints), cfg.Frames, metrics.Default)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tKINETIC\tMAX SPEED\tCONTAINED\tWALL/FRAME\tPAIR/FRAME\n", strings.ToUpper(args[0]))
	for _, p := range points {
		m := p.Metrics
		fmt.Fprintf(w, "%.4g\t%.6g\t%.6g\t%.1f%%\t%.2f\t%.2f\n",
			p.Param, m["kinetic_energy"], m["max_speed"], 100*m["containment"], m["wall_contacts"], m["pair_contacts"])
	}
	return w.Flush()
}

func divergeRun(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, name, registry, newLogger())
	if err := exp.Setup(1); err != nil {
		return err
	}

	res, err := analysis.Divergence(cmd.Context(), cfg.Params(), exp.Initial(), integ, divergeSteps, perturbation)
	if err != nil && !errors.Is(err, dynamo.ErrContextCanceled) {
		return err
	}

	logSep := make([]float64, 0, len(res.Separation))
	for _, s := range res.Separation {
		if s > 0 {
			logSep = append(logSep, math.Log10(s))
		}
	}
	if len(logSep) > 1 {
		fmt.Println(asciigraph.Plot(logSep,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("log10 rms separation"),
		))
	}
	fmt.Printf("\nexponent: %.4g per unit time over %d steps\n", res.Exponent, len(res.Separation))
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPARTICLES\tLAYOUT\tGRAVITY\tFRAMES\tWORKERS")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%s\t%g\t%d\t%d\n",
			name, c.Particles, c.Layout, c.Physics.Gravity[1], c.Frames, c.Workers)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(initPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", initPreset, config.ListPresets())
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	log := newLogger()

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir, log)
		if err := st.Init(); err != nil {
			return err
		}
	}

	fmt.Printf("scenario %s: %d runs\n", sc.Name, len(sc.Runs))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	outcomes, runErr := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tRUN ID\tSTEPS\tKINETIC\tCONTAINED\tTIME")
	for _, o := range outcomes {
		m := o.Result.Metrics
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6g\t%.1f%%\t%v\n",
			o.Label, o.RunID, o.Result.Steps, m["kinetic_energy"], 100*m["containment"],
			o.Result.Elapsed.Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

// parseGrid reads "name=lo:hi:n" into a parameter name and n evenly spaced
// values.
func parseGrid(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	parts := strings.Split(rng, ":")
	if !ok || name == "" || len(parts) != 3 {
		return "", nil, fmt.Errorf("bad grid %q: want name=lo:hi:n", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad grid %q: %w", arg, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad grid %q: %w", arg, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n <= 0 {
		return "", nil, fmt.Errorf("bad grid %q: point count must be a positive integer", arg)
	}
	return name, analysis.Linspace(lo, hi, n), nil
}

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, a := range args {
		n, values, err := parseGrid(a)
		if err != nil {
			return err
		}
		names = append(names, n)
		ranges = append(ranges, values)
	}

	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, name, registry, newLogger())
	if err := exp.Setup(cfg.Frames); err != nil {
		return err
	}

	grid := optim.NewGridSearch(names, ranges)
	goal := "minimizing"
	if tuneMaximize {
		grid.Maximize()
		goal = "maximizing"
	}
	fmt.Printf("%s %s over %v on %s (%d particles, %d frames per point)\n",
		goal, tuneMetric, names, name, cfg.Particles, cfg.Frames)

	eval := optim.RunEvaluator(exp.Initial(), integ, cfg.Frames, metrics.Default)
	res, err := grid.Search(cmd.Context(), cfg.Params(), eval, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("\nevaluated %d points, skipped %d\n", res.Evaluated, res.Skipped)
	fmt.Printf("best %s: %.6g\n", tuneMetric, res.Value)
	for _, n := range names {
		fmt.Printf("  %-12s %.4g\n", n, res.Params[n])
	}
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	braille := renderView == "braille"
	var view export.View
	if !braille {
		v, err := export.ParseView(renderView)
		if err != nil {
			return err
		}
		view = v
	}
	st := storage.New(dataDir, newLogger())

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snap, err := st.LoadSnapshot(runID)
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = runID + ".svg"
	}
	params := meta.Physics.Params()
	color := string(viz.ThemeOcean.Primary)

	var svg string
	if braille {
		cols := max(renderSize/6, 10)
		cv := viz.RenderScene(snap.Positions, params, cols, cols/2, 0)
		svg = export.CanvasToSVG(cv, float64(renderSize)/float64(2*cols), color)
	} else {
		svg = export.ParticlesToSVG(snap.Positions, params, view, renderSize, color)
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d particles, step %d)\n", out, len(snap.Positions), snap.Step)
	return nil
}
