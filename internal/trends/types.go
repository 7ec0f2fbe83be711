// Package trends turns search-interest time series into a ranking signal.
// A lookup service (external) returns raw interest points for a keyword;
// this package classifies the momentum of the series, normalizes it into a
// [0,1] score, and aggregates up to three keyword signals per patent into a
// consensus view.
package trends

import "time"

const (
	// MaxKeywordsPerPatent bounds how many keyword lookups feed one
	// patent's aggregate.
	MaxKeywordsPerPatent = 3

	// MinSeriesPoints is the minimum series length needed to classify a
	// trend direction. Shorter series are DirectionUnknown.
	MinSeriesPoints = 10

	DefaultTimeframe = "today 12-m"
)

// Momentum multipliers applied to the interest-based score. A rising trend
// earns a bonus and a falling one a penalty so that market momentum, not
// just absolute interest, moves the final ranking.
const (
	risingMultiplier  = 1.3
	fallingMultiplier = 0.7
)

type Direction string

const (
	DirectionRising  Direction = "rising"
	DirectionFalling Direction = "falling"
	DirectionStable  Direction = "stable"
	DirectionUnknown Direction = "unknown"
)

type Consensus string

const (
	ConsensusRising  Consensus = "Rising"
	ConsensusFalling Consensus = "Falling"
	ConsensusMixed   Consensus = "Mixed"
	// ConsensusUnknown is the sentinel emitted when a patent reaches the
	// trend stage with no keywords at all. The record is still present in
	// the output with a zero average score.
	ConsensusUnknown Consensus = "Unknown"
)

type Point struct {
	Date     time.Time `json:"date"`
	Interest float64   `json:"interest"`
}

type Series struct {
	Keyword string  `json:"keyword"`
	Points  []Point `json:"points"`
}

// KeywordResult is the outcome of one keyword lookup. A failed or empty
// lookup degrades to a zero-score unknown result rather than disappearing.
type KeywordResult struct {
	Keyword     string    `json:"keyword"`
	AvgInterest float64   `json:"avg_interest"`
	Direction   Direction `json:"direction"`
	Score       float64   `json:"score"`
}

// Aggregate combines up to MaxKeywordsPerPatent keyword results for one
// patent.
type Aggregate struct {
	Results      []KeywordResult `json:"results"`
	AverageScore float64         `json:"average_score"`
	BestKeyword  string          `json:"best_keyword"`
	Consensus    Consensus       `json:"consensus"`

	// Degraded counts keyword lookups that failed and were replaced by the
	// zero-score unknown sentinel.
	Degraded int `json:"degraded"`
}

func emptyKeywordResult(keyword string) KeywordResult {
	return KeywordResult{Keyword: keyword, Direction: DirectionUnknown}
}
