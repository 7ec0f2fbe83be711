package curation

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeColumnBounds(t *testing.T) {
	_, scores := NormalizeColumn([]float64{0, 3, 12, 150, 4000})
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Fatalf("score[%d] = %v out of [0,1]", i, s)
		}
	}
	if !almostEqual(scores[0], 0) {
		t.Errorf("min value should normalize to 0, got %v", scores[0])
	}
	if !almostEqual(scores[len(scores)-1], 1) {
		t.Errorf("max value should normalize to 1, got %v", scores[len(scores)-1])
	}
}

func TestNormalizeColumnDegenerate(t *testing.T) {
	_, scores := NormalizeColumn([]float64{7, 7, 7, 7})
	for i, s := range scores {
		if s != 0 {
			t.Errorf("constant column should normalize to 0, score[%d] = %v", i, s)
		}
	}
}

func TestNormalizeColumnSanitizesInput(t *testing.T) {
	logs, scores := NormalizeColumn([]float64{math.NaN(), -3, 10})
	if logs[0] != 0 || logs[1] != 0 {
		t.Errorf("NaN and negative inputs should log to 0, got %v, %v", logs[0], logs[1])
	}
	if !almostEqual(scores[2], 1) {
		t.Errorf("sole positive value should score 1, got %v", scores[2])
	}
}

func TestNormalizeColumnEmpty(t *testing.T) {
	logs, scores := NormalizeColumn(nil)
	if len(logs) != 0 || len(scores) != 0 {
		t.Fatalf("empty input should yield empty output, got %d logs, %d scores", len(logs), len(scores))
	}
}

func TestScorePatentsRanking(t *testing.T) {
	patents := ApplyMetricScores([]Patent{
		{Title: "Low", PatentCitations: 1, LiteratureCitations: 1, FamilySize: 1},
		{Title: "High", PatentCitations: 100, LiteratureCitations: 80, FamilySize: 30},
		{Title: "Mid", PatentCitations: 20, LiteratureCitations: 10, FamilySize: 8},
	})

	ranked, err := ScorePatents(patents, DefaultWeights(), BaseMetrics)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{ranked[0].Title, ranked[1].Title, ranked[2].Title}
	want := []string{"High", "Mid", "Low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order = %v, want %v", got, want)
		}
	}
	if ranked[0].FinalScore < 0 || ranked[0].FinalScore > 1 {
		t.Errorf("final score %v out of [0,1]", ranked[0].FinalScore)
	}
}

func TestScorePatentsWeightScaleInvariance(t *testing.T) {
	rows := []Patent{
		{Title: "A", PatentCitations: 3, LiteratureCitations: 40, FamilySize: 2},
		{Title: "B", PatentCitations: 90, LiteratureCitations: 5, FamilySize: 14},
		{Title: "C", PatentCitations: 12, LiteratureCitations: 12, FamilySize: 12},
	}

	unit, err := NewWeights(map[string]float64{
		"patent_citations": 0.40, "literature_citations": 0.35, "family_size": 0.25,
	})
	if err != nil {
		t.Fatal(err)
	}
	scaled, err := NewWeights(map[string]float64{
		"patent_citations": 40, "literature_citations": 35, "family_size": 25,
	})
	if err != nil {
		t.Fatal(err)
	}

	a, err := ScorePatents(ApplyMetricScores(rows), unit, BaseMetrics)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ScorePatents(ApplyMetricScores(rows), scaled, BaseMetrics)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if !almostEqual(a[i].FinalScore, b[i].FinalScore) {
			t.Errorf("row %d: score %v != %v under uniformly scaled weights", i, a[i].FinalScore, b[i].FinalScore)
		}
	}
}

func TestScorePatentsStableTies(t *testing.T) {
	rows := []Patent{
		{Title: "A", MetricScores: map[Metric]float64{MetricPatentCitations: 0.5, MetricLiteratureCitations: 0.5, MetricFamilySize: 0.5}},
		{Title: "B", MetricScores: map[Metric]float64{MetricPatentCitations: 0.9, MetricLiteratureCitations: 0.9, MetricFamilySize: 0.9}},
		{Title: "C", MetricScores: map[Metric]float64{MetricPatentCitations: 0.5, MetricLiteratureCitations: 0.5, MetricFamilySize: 0.5}},
	}
	ranked, err := ScorePatents(rows, DefaultWeights(), BaseMetrics)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{ranked[0].Title, ranked[1].Title, ranked[2].Title}
	want := []string{"B", "A", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tied rows reordered: got %v, want %v", got, want)
		}
	}
}

func TestScorePatentsMissingMetric(t *testing.T) {
	rows := []Patent{
		{Title: "Incomplete", MetricScores: map[Metric]float64{MetricPatentCitations: 0.5}},
	}
	_, err := ScorePatents(rows, DefaultWeights(), BaseMetrics)
	if err == nil {
		t.Fatal("expected error for row missing a required metric")
	}
	if !strings.Contains(err.Error(), "literature_citations") && !strings.Contains(err.Error(), "family_size") {
		t.Errorf("error should name the missing metric, got %q", err)
	}
}

func TestApplyMetricScoresDoesNotMutateInput(t *testing.T) {
	rows := []Patent{{Title: "A", PatentCitations: 10}}
	out := ApplyMetricScores(rows)
	if rows[0].MetricScores != nil {
		t.Error("input row gained a metric map")
	}
	if out[0].MetricScores == nil {
		t.Error("output row missing metric map")
	}
}

func TestNewWeightsRejectsBadInput(t *testing.T) {
	if _, err := NewWeights(map[string]float64{"citation_velocity": 1}); err == nil {
		t.Error("unknown weight key should be rejected")
	}
	if _, err := NewWeights(map[string]float64{"family_size": -0.1}); err == nil {
		t.Error("negative weight should be rejected")
	}
}

func TestWeightsZeroSum(t *testing.T) {
	w, err := NewWeights(map[string]float64{
		"patent_citations": 0, "literature_citations": 0, "family_size": 0, "trend_score": 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	rows := ApplyMetricScores([]Patent{{Title: "A", PatentCitations: 1}})
	if _, err := ScorePatents(rows, w, BaseMetrics); err == nil {
		t.Error("all-zero weights should fail scoring")
	}
}
