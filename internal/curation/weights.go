package curation

import (
	"fmt"
	"sort"
)

// Fallback weight for each known metric when the run configuration leaves
// it out. The set is renormalized over the metrics actually present in a
// scoring pass, so only the ratios matter.
var defaultWeightValues = map[Metric]float64{
	MetricPatentCitations:     0.40,
	MetricLiteratureCitations: 0.35,
	MetricFamilySize:          0.25,
	MetricTrendScore:          0.20,
}

// Weights is the validated, immutable weight set for one run. Construct it
// once; unknown keys and negative values are rejected up front instead of
// surfacing as silent scoring bugs later.
type Weights struct {
	values map[Metric]float64
}

func DefaultWeights() Weights {
	return Weights{values: copyWeights(defaultWeightValues)}
}

// NewWeights builds a weight set from raw configuration, filling absent
// known metrics with their documented defaults.
func NewWeights(raw map[string]float64) (Weights, error) {
	values := copyWeights(defaultWeightValues)
	for k, v := range raw {
		m := Metric(k)
		if _, known := values[m]; !known {
			return Weights{}, fmt.Errorf("unknown weight key %q (known: %s)", k, knownMetricList())
		}
		if v < 0 {
			return Weights{}, fmt.Errorf("weight %q must not be negative, got %v", k, v)
		}
		values[m] = v
	}
	return Weights{values: values}, nil
}

// normalized returns the weights for the given metrics rescaled to sum to
// exactly 1. Uniform positive rescaling of the configured values therefore
// never changes a final score.
func (w Weights) normalized(metrics []Metric) (map[Metric]float64, error) {
	if w.values == nil {
		w = DefaultWeights()
	}
	total := 0.0
	for _, m := range metrics {
		total += w.values[m]
	}
	if total <= 0 {
		return nil, fmt.Errorf("weights for metrics %v sum to zero", metrics)
	}
	out := make(map[Metric]float64, len(metrics))
	for _, m := range metrics {
		out[m] = w.values[m] / total
	}
	return out, nil
}

func (w Weights) Value(m Metric) float64 {
	if w.values == nil {
		return defaultWeightValues[m]
	}
	return w.values[m]
}

func copyWeights(src map[Metric]float64) map[Metric]float64 {
	out := make(map[Metric]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func knownMetricList() string {
	keys := make([]string, 0, len(defaultWeightValues))
	for m := range defaultWeightValues {
		keys = append(keys, string(m))
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}
