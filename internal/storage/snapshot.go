package storage

import (
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/cylsim/internal/dynamo"
)

// Snapshot is the particle state at the end of a run.
type Snapshot struct {
	Step       int          `msgpack:"step"`
	Time       float64      `msgpack:"time"`
	Positions  []mgl64.Vec3 `msgpack:"positions"`
	Velocities []mgl64.Vec3 `msgpack:"velocities"`
}

func NewSnapshot(step int, t float64, st dynamo.State) *Snapshot {
	c := st.Clone()
	return &Snapshot{Step: step, Time: t, Positions: c.Positions, Velocities: c.Velocities}
}

func (s *Snapshot) State() dynamo.State {
	return dynamo.State{Positions: s.Positions, Velocities: s.Velocities}
}

func writeSnapshot(path string, snap *Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Store) LoadSnapshot(runID string) (*Snapshot, error) {
	data, err := s.readFile(runID, snapshotFile)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if !snap.State().Consistent() {
		return nil, dynamo.ErrDimensionMismatch
	}
	return &snap, nil
}

// HasSnapshot reports whether the run stored a final state.
func (s *Store) HasSnapshot(runID string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, runID, snapshotFile))
	return err == nil
}
