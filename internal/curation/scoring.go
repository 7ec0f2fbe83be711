package curation

import (
	"fmt"
	"math"
	"sort"
)

// NormalizeColumn maps a raw numeric column to [0,1]: log1p to compress the
// heavy right tail of citation counts, then min-max scaling against the
// column's own range. A column where every value is equal carries no
// discriminative signal and normalizes to all zeros rather than dividing by
// zero. Pure function of the column; no cross-column coupling.
func NormalizeColumn(values []float64) (logs, scores []float64) {
	logs = make([]float64, len(values))
	scores = make([]float64, len(values))
	if len(values) == 0 {
		return logs, scores
	}

	for i, v := range values {
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		logs[i] = math.Log1p(v)
	}

	minLog, maxLog := logs[0], logs[0]
	for _, l := range logs[1:] {
		if l < minLog {
			minLog = l
		}
		if l > maxLog {
			maxLog = l
		}
	}
	if maxLog <= minLog {
		return logs, scores
	}
	for i, l := range logs {
		scores[i] = (l - minLog) / (maxLog - minLog)
	}
	return logs, scores
}

// ApplyMetricScores normalizes each base metric independently and attaches
// the per-metric log values and [0,1] scores to fresh copies of the rows.
func ApplyMetricScores(patents []Patent) []Patent {
	out := make([]Patent, len(patents))
	copy(out, patents)
	for i := range out {
		out[i].LogValues = make(map[Metric]float64, len(BaseMetrics))
		out[i].MetricScores = make(map[Metric]float64, len(AllMetrics))
	}

	column := make([]float64, len(out))
	for _, m := range BaseMetrics {
		for i := range out {
			v, _ := out[i].rawMetric(m)
			column[i] = v
		}
		logs, scores := NormalizeColumn(column)
		for i := range out {
			out[i].LogValues[m] = logs[i]
			out[i].MetricScores[m] = scores[i]
		}
	}
	return out
}

// ScorePatents combines the normalized metric scores into one final score
// per row using the renormalized weights, then orders the rows by score
// descending. The sort is stable: ties keep their input order. A row
// missing a required metric score fails the whole pass; silent defaulting
// would corrupt the ranking.
func ScorePatents(patents []Patent, w Weights, metrics []Metric) ([]Patent, error) {
	weights, err := w.normalized(metrics)
	if err != nil {
		return nil, err
	}

	out := make([]Patent, len(patents))
	copy(out, patents)
	for i := range out {
		score := 0.0
		for _, m := range metrics {
			s, ok := out[i].MetricScores[m]
			if !ok {
				return nil, fmt.Errorf("missing required metric %q for patent %q", m, out[i].Title)
			}
			score += weights[m] * s
		}
		out[i].FinalScore = score
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out, nil
}
