// Package diag collects per-phase proof timing and summarizes it with basic
// descriptive statistics, the way the teacher's own bootstrapping
// experiments (examples/ckks/bootstrapping/experiments) record
// precision/timing samples across repeated runs and reduce them to a
// mean/stddev/percentile summary before printing a report.
package diag

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// Phase accumulates wall-clock samples for one named stage of a mix-net
// session (e.g. "precomp", "shuffle", "decrypt").
type Phase struct {
	Name    string
	samples []float64 // seconds
}

// NewPhase starts an empty sample set for name.
func NewPhase(name string) *Phase {
	return &Phase{Name: name}
}

// Record appends one observed duration.
func (p *Phase) Record(d time.Duration) {
	p.samples = append(p.samples, d.Seconds())
}

// Timed runs f, recording its wall-clock duration, and returns f's error.
func (p *Phase) Timed(f func() error) error {
	start := time.Now()
	err := f()
	p.Record(time.Since(start))
	return err
}

// Summary is a Phase's samples reduced to descriptive statistics.
type Summary struct {
	Name            string
	N               int
	Mean, StdDev    float64
	Min, Max        float64
	P50, P95        float64
}

// Summarize reduces p's samples via montanaflynn/stats. It returns an error
// only if p has no samples.
func (p *Phase) Summarize() (Summary, error) {
	if len(p.samples) == 0 {
		return Summary{}, fmt.Errorf("diag: phase %q has no samples", p.Name)
	}
	data := stats.LoadRawData(p.samples)
	mean, err := data.Mean()
	if err != nil {
		return Summary{}, fmt.Errorf("diag: phase %q: %w", p.Name, err)
	}
	stddev, err := data.StandardDeviation()
	if err != nil {
		return Summary{}, fmt.Errorf("diag: phase %q: %w", p.Name, err)
	}
	min, err := data.Min()
	if err != nil {
		return Summary{}, fmt.Errorf("diag: phase %q: %w", p.Name, err)
	}
	max, err := data.Max()
	if err != nil {
		return Summary{}, fmt.Errorf("diag: phase %q: %w", p.Name, err)
	}
	p50, err := data.Percentile(50)
	if err != nil {
		return Summary{}, fmt.Errorf("diag: phase %q: %w", p.Name, err)
	}
	p95, err := data.Percentile(95)
	if err != nil {
		return Summary{}, fmt.Errorf("diag: phase %q: %w", p.Name, err)
	}
	return Summary{
		Name: p.Name, N: len(p.samples),
		Mean: mean, StdDev: stddev, Min: min, Max: max, P50: p50, P95: p95,
	}, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: n=%d mean=%.4fs stddev=%.4fs min=%.4fs max=%.4fs p50=%.4fs p95=%.4fs",
		s.Name, s.N, s.Mean, s.StdDev, s.Min, s.Max, s.P50, s.P95)
}
