package storage

import (
	"encoding/json"
	"io"

	"github.com/go-gl/mathgl/mgl64"
)

type ExportData struct {
	Metadata  RunMetadata          `json:"metadata"`
	Columns   []string             `json:"columns"`
	Steps     []int                `json:"steps"`
	Times     []float64            `json:"times"`
	Series    map[string][]float64 `json:"series"`
	Positions []mgl64.Vec3         `json:"positions,omitempty"`
}

// ExportJSON writes a stored run, series and final positions included, as
// indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	columns, samples, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata: *meta,
		Columns:  columns,
		Steps:    make([]int, len(samples)),
		Times:    make([]float64, len(samples)),
		Series:   make(map[string][]float64, len(columns)),
	}
	for i, sm := range samples {
		data.Steps[i] = sm.Step
		data.Times[i] = sm.Time
	}
	for _, c := range columns {
		data.Series[c], _ = Column(columns, samples, c)
	}
	if s.HasSnapshot(runID) {
		snap, err := s.LoadSnapshot(runID)
		if err != nil {
			return err
		}
		data.Positions = snap.Positions
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
