package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

type Histogram struct {
	Lo, Hi float64
	Counts []int
}

// NewHistogram bins values into bins equal-width buckets over [lo, hi].
// Values outside the range, infinities included, are clamped into the edge
// buckets. NaNs are skipped.
func NewHistogram(values []float64, bins int, lo, hi float64) *Histogram {
	if bins < 1 {
		bins = 1
	}
	h := &Histogram{Lo: lo, Hi: hi, Counts: make([]int, bins)}
	width := (hi - lo) / float64(bins)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		var k int
		switch {
		case v >= hi:
			k = bins - 1
		case v <= lo || !(width > 0):
			k = 0
		default:
			k = min(bins-1, int(math.Floor((v-lo)/width)))
		}
		h.Counts[k]++
	}
	return h
}

func Heights(positions []mgl64.Vec3) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = p.Y()
	}
	return out
}

// Radii returns the distance of each position from the cylinder axis.
func Radii(positions []mgl64.Vec3) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = math.Hypot(p.X(), p.Z())
	}
	return out
}

// ASCII renders one bar per bucket, the longest bar width characters wide.
func (h *Histogram) ASCII(width int) string {
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}
	var sb strings.Builder
	bw := (h.Hi - h.Lo) / float64(len(h.Counts))
	for i, c := range h.Counts {
		n := 0
		if peak > 0 {
			n = c * width / peak
		}
		fmt.Fprintf(&sb, "%8.3f | %s %d\n", h.Lo+float64(i)*bw, strings.Repeat("█", n), c)
	}
	return sb.String()
}
