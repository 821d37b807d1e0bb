package dxgrid

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ValueStats summarises the distribution of grid values.
type ValueStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes distribution statistics over values. An empty slice
// yields zero stats; a single value reports zero spread so the result
// stays JSON-encodable.
func Summarize(values []float64) ValueStats {
	if len(values) == 0 {
		return ValueStats{}
	}
	vs := ValueStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}
	if len(values) > 1 {
		vs.StdDev = stat.StdDev(values, nil)
	}
	return vs
}
