package sim

import "github.com/san-kum/cylsim/internal/dynamo"

type Sample struct {
	Step   int
	Time   float64
	Values []float64
}

// Recorder is an observer that samples the current value of a metric set on
// every Every-th frame. Register it after the metrics so it reads values that
// already include the frame.
type Recorder struct {
	metrics []dynamo.Metric
	every   int
	seen    int
	samples []Sample
}

func NewRecorder(metrics []dynamo.Metric, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{metrics: metrics, every: every}
}

func (r *Recorder) OnFrame(f dynamo.Frame) {
	r.seen++
	if (r.seen-1)%r.every != 0 {
		return
	}
	values := make([]float64, len(r.metrics))
	for i, m := range r.metrics {
		values[i] = m.Value()
	}
	r.samples = append(r.samples, Sample{Step: f.Step, Time: f.Time, Values: values})
}

// Columns names the values in each sample, in order.
func (r *Recorder) Columns() []string {
	names := make([]string, len(r.metrics))
	for i, m := range r.metrics {
		names[i] = m.Name()
	}
	return names
}

func (r *Recorder) Samples() []Sample { return r.samples }

// Column returns the series of the named metric, or nil.
func (r *Recorder) Column(name string) []float64 {
	for i, m := range r.metrics {
		if m.Name() != name {
			continue
		}
		out := make([]float64, len(r.samples))
		for j, s := range r.samples {
			out[j] = s.Values[i]
		}
		return out
	}
	return nil
}

func (r *Recorder) Reset() {
	r.seen = 0
	r.samples = r.samples[:0]
}
