package trace

import (
	"time"

	"github.com/montanaflynn/stats"
)

// SojournSummary aggregates CoDel sojourn samples for one face.
type SojournSummary struct {
	Count  int
	Mean   time.Duration
	P95    time.Duration
	Within float64 // fraction of samples within tolerance of the target
}

// SummarizeSojourns computes sojourn statistics for a face, restricted to
// samples at or after 'from'. Within is the fraction of samples at or
// below target + tolerance.
func (c *Collector) SummarizeSojourns(face string, from time.Time, target, tolerance time.Duration) SojournSummary {
	if c == nil {
		return SojournSummary{}
	}
	var samples []float64
	within := 0
	for _, s := range c.Sojourns {
		if s.Face != face || s.Time.Before(from) {
			continue
		}
		samples = append(samples, s.Sojourn.Seconds())
		if s.Sojourn <= target+tolerance {
			within++
		}
	}
	if len(samples) == 0 {
		return SojournSummary{}
	}
	mean, _ := stats.Mean(samples)
	p95, _ := stats.Percentile(samples, 95)
	return SojournSummary{
		Count:  len(samples),
		Mean:   time.Duration(mean * float64(time.Second)),
		P95:    time.Duration(p95 * float64(time.Second)),
		Within: float64(within) / float64(len(samples)),
	}
}

// EmitRate returns the mean emitted interest bit-rate on a face between
// two points in virtual time, from the emission events.
func (c *Collector) EmitRate(face string, from, to time.Time) float64 {
	if c == nil || !to.After(from) {
		return 0
	}
	bytes := 0
	for _, e := range c.Emits {
		if e.Face != face || e.Time.Before(from) || e.Time.After(to) {
			continue
		}
		bytes += e.Size
	}
	return float64(bytes) * 8 / to.Sub(from).Seconds()
}

// MeanShapingRate returns the mean of shaping-rate samples on a face.
func (c *Collector) MeanShapingRate(face string, from time.Time) float64 {
	if c == nil {
		return 0
	}
	var samples []float64
	for _, r := range c.Rates {
		if r.Face != face || r.Time.Before(from) {
			continue
		}
		samples = append(samples, r.Shaping)
	}
	if len(samples) == 0 {
		return 0
	}
	mean, _ := stats.Mean(samples)
	return mean
}
