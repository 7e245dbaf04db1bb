package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cylsim/internal/config"
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/sim"
)

func testRun() *Run {
	cfg := config.DefaultConfig()
	return &Run{
		Meta: RunMetadata{
			Preset:     "small",
			Seed:       42,
			Particles:  2,
			Frames:     2,
			Steps:      2,
			Dt:         cfg.Physics.Dt,
			Integrator: "rk4",
			Layout:     "uniform",
			Physics:    cfg.Physics,
			Metrics:    map[string]float64{"kinetic_energy": 1.5},
		},
		Columns: []string{"kinetic_energy", "containment"},
		Series: []sim.Sample{
			{Step: 1, Time: 0.0001, Values: []float64{0.25, 1}},
			{Step: 2, Time: 0.0002, Values: []float64{1.5, 0.5}},
		},
		Final: dynamo.State{
			Positions:  []mgl64.Vec3{{0.1, 0.2, 0.3}, {-1, 0, 1}},
			Velocities: []mgl64.Vec3{{0, -0.9, 0}, {1, 1, 1}},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir(), nil)
	require.NoError(t, st.Init())

	runID, err := st.Save(testRun())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "small", meta.Preset)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 1.5, meta.Metrics["kinetic_energy"])
	assert.Equal(t, config.DefaultConfig().Physics, meta.Physics)
	assert.False(t, meta.Timestamp.IsZero())

	columns, samples, err := st.LoadSeries(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"kinetic_energy", "containment"}, columns)
	require.Len(t, samples, 2)
	assert.Equal(t, 2, samples[1].Step)
	assert.Equal(t, 0.0002, samples[1].Time)
	assert.Equal(t, []float64{1.5, 0.5}, samples[1].Values)

	ke, ok := Column(columns, samples, "kinetic_energy")
	assert.True(t, ok)
	assert.Equal(t, []float64{0.25, 1.5}, ke)
	_, ok = Column(columns, samples, "missing")
	assert.False(t, ok)
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := New(t.TempDir(), nil)
	run := testRun()
	runID, err := st.Save(run)
	require.NoError(t, err)

	assert.True(t, st.HasSnapshot(runID))
	snap, err := st.LoadSnapshot(runID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Step)
	assert.Equal(t, run.Final.Positions, snap.Positions)
	assert.Equal(t, run.Final.Velocities, snap.Velocities)
}

func TestSaveWithoutFinalState(t *testing.T) {
	st := New(t.TempDir(), nil)
	run := testRun()
	run.Final = dynamo.State{}
	runID, err := st.Save(run)
	require.NoError(t, err)
	assert.False(t, st.HasSnapshot(runID))

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(&buf, runID))
	assert.NotContains(t, buf.String(), "positions")
}

func TestSaveUnencodableMetadataLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	st := New(dir, nil)
	run := testRun()
	run.Meta.Metrics["kinetic_energy"] = math.NaN()

	_, err := st.Save(run)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	st := New(dir, nil)

	old := testRun()
	old.Meta.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	oldID, err := st.Save(old)
	require.NoError(t, err)

	recent := testRun()
	recent.Meta.Timestamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recentID, err := st.Save(recent)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "junk"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, recentID, runs[0].ID)
	assert.Equal(t, oldID, runs[1].ID)
}

func TestListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"), nil)
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadUnknownRun(t *testing.T) {
	st := New(t.TempDir(), nil)
	_, err := st.Load("nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, _, err = st.LoadSeries("nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir(), nil)
	runID, err := st.Save(testRun())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(&buf, runID))

	var out ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, runID, out.Metadata.ID)
	assert.Equal(t, []int{1, 2}, out.Steps)
	assert.Equal(t, []float64{1, 0.5}, out.Series["containment"])
	assert.Len(t, out.Positions, 2)
}
