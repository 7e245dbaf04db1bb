package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/cylsim/internal/config"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/logging"
	"github.com/san-kum/cylsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	snapshotFile = "snapshot.msgpack"
)

// ErrRunNotFound is returned when no run directory matches an ID.
var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	log     logging.Logger
}

func New(baseDir string, logger logging.Logger) *Store {
	return &Store{baseDir: baseDir, log: logging.OrNop(logger)}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID             string               `json:"id"`
	Preset         string               `json:"preset"`
	Timestamp      time.Time            `json:"timestamp"`
	Seed           int64                `json:"seed"`
	Particles      int                  `json:"particles"`
	Frames         int                  `json:"frames"`
	StepsPerFrame  int                  `json:"steps_per_frame"`
	Steps          int                  `json:"steps"`
	Dt             float64              `json:"dt"`
	Integrator     string               `json:"integrator"`
	Layout         string               `json:"layout"`
	Workers        int                  `json:"workers"`
	Physics        config.PhysicsConfig `json:"physics"`
	Metrics        map[string]float64   `json:"metrics"`
	ElapsedSeconds float64              `json:"elapsed_seconds"`
}

// Run is everything written for one simulation run.
type Run struct {
	Meta    RunMetadata
	Columns []string
	Series  []sim.Sample
	Final   dynamo.State
}

// Save assigns a new ID and timestamp to run.Meta when unset and writes the
// run directory. It returns the run ID. A failed save leaves no directory
// behind.
func (s *Store) Save(run *Run) (string, error) {
	if run.Meta.ID == "" {
		run.Meta.ID = uuid.NewString()
	}
	if run.Meta.Timestamp.IsZero() {
		run.Meta.Timestamp = time.Now()
	}

	meta, err := json.MarshalIndent(run.Meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	runDir := filepath.Join(s.baseDir, run.Meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, meta, run); err != nil {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			s.log.Warnf("remove partial run %s: %v", runDir, rmErr)
		}
		return "", err
	}

	s.log.Debugf("saved run %s to %s", run.Meta.ID, runDir)
	return run.Meta.ID, nil
}

func writeRun(runDir string, meta []byte, run *Run) error {
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), append(meta, '\n'), 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), run.Columns, run.Series); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	if run.Final.Len() > 0 {
		snap := NewSnapshot(run.Meta.Steps, float64(run.Meta.Steps)*run.Meta.Dt, run.Final)
		if err := writeSnapshot(filepath.Join(runDir, snapshotFile), snap); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}
	return nil
}

func writeSeries(path string, columns []string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"step", "time"}, columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, sm := range samples {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(sm.Step), strconv.FormatFloat(sm.Time, 'g', -1, 64))
		for _, v := range sm.Values {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every readable run, newest first.
// Directories without valid metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.Debugf("skipping %s: %v", entry.Name(), err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := s.readFile(runID, metadataFile)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries returns the metric column names and the samples of a run.
func (s *Store) LoadSeries(runID string) ([]string, []sim.Sample, error) {
	f, err := s.open(runID, seriesFile)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty series", runID)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("%s: malformed series header", runID)
	}
	columns := header[2:]

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", runID, i+1, err)
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", runID, i+1, err)
		}
		values := make([]float64, len(columns))
		for j := range columns {
			if values[j], err = strconv.ParseFloat(rec[j+2], 64); err != nil {
				return nil, nil, fmt.Errorf("%s row %d: %w", runID, i+1, err)
			}
		}
		samples = append(samples, sim.Sample{Step: step, Time: t, Values: values})
	}
	return columns, samples, nil
}

// Column extracts one named column from samples loaded with LoadSeries.
func Column(columns []string, samples []sim.Sample, name string) ([]float64, bool) {
	for j, c := range columns {
		if c != name {
			continue
		}
		out := make([]float64, len(samples))
		for i, sm := range samples {
			out[i] = sm.Values[j]
		}
		return out, true
	}
	return nil, false
}

func (s *Store) readFile(runID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return data, err
}

func (s *Store) open(runID, name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return f, err
}
