package trends

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
)

// Service is the external trend-lookup collaborator. Implementations own
// their retry and rate-limit behavior; the analyzer only needs the series
// or a failure.
type Service interface {
	Lookup(ctx context.Context, keyword, timeframe string) (Series, error)
}

// ErrNoData reports that the service answered but has no interest data for
// the keyword. Treated like any other per-keyword failure: the keyword
// degrades, the batch continues.
var ErrNoData = errors.New("trends: no data for keyword")

type Analyzer struct {
	svc       Service
	cache     Cache
	timeframe string
}

func NewAnalyzer(svc Service, cache Cache, timeframe string) *Analyzer {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if strings.TrimSpace(timeframe) == "" {
		timeframe = DefaultTimeframe
	}
	return &Analyzer{svc: svc, cache: cache, timeframe: timeframe}
}

// AnalyzeKeywords looks up at most MaxKeywordsPerPatent keywords and folds
// them into one Aggregate. Individual lookup failures never abort the
// patent: the failed keyword contributes a zero-score unknown result and is
// counted in Aggregate.Degraded. Only context cancellation returns an error.
func (a *Analyzer) AnalyzeKeywords(ctx context.Context, keywords []string) (Aggregate, error) {
	kws := make([]string, 0, MaxKeywordsPerPatent)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		kws = append(kws, kw)
		if len(kws) == MaxKeywordsPerPatent {
			break
		}
	}

	results := make([]KeywordResult, 0, len(kws))
	degraded := 0
	for _, kw := range kws {
		if err := ctx.Err(); err != nil {
			return Aggregate{}, err
		}
		res, err := a.analyzeKeyword(ctx, kw)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Aggregate{}, err
			}
			log.Printf("trends lookup degraded keyword=%q err=%v", kw, err)
			res = emptyKeywordResult(kw)
			degraded++
		}
		results = append(results, res)
	}

	agg := AggregateResults(results)
	agg.Degraded = degraded
	return agg, nil
}

func (a *Analyzer) analyzeKeyword(ctx context.Context, keyword string) (KeywordResult, error) {
	series, ok := a.cache.Get(keyword, a.timeframe)
	if !ok {
		var err error
		series, err = a.svc.Lookup(ctx, keyword, a.timeframe)
		if err != nil {
			return KeywordResult{}, err
		}
		a.cache.Put(keyword, a.timeframe, series)
	}
	if len(series.Points) == 0 {
		return KeywordResult{}, ErrNoData
	}

	avg := meanInterest(series.Points)
	dir := ClassifyDirection(series)
	return KeywordResult{
		Keyword:     keyword,
		AvgInterest: avg,
		Direction:   dir,
		Score:       NormalizeScore(avg, dir),
	}, nil
}

// ClassifyDirection splits the series at its midpoint and compares the mean
// interest of the two halves. A change above +25% is rising, below -25%
// falling, anything between stable. Series shorter than MinSeriesPoints are
// unknown. A zero first half has no baseline to compare against and is
// reported stable.
func ClassifyDirection(series Series) Direction {
	n := len(series.Points)
	if n < MinSeriesPoints {
		return DirectionUnknown
	}

	mid := n / 2
	first := meanInterest(series.Points[:mid])
	second := meanInterest(series.Points[mid:])

	if first == 0 {
		return DirectionStable
	}
	changePct := (second - first) / first * 100
	switch {
	case changePct > 25:
		return DirectionRising
	case changePct < -25:
		return DirectionFalling
	default:
		return DirectionStable
	}
}

// NormalizeScore maps a 0-100 average interest to [0,1], with a momentum
// bonus for rising keywords and a penalty for falling ones, clamped at the
// boundaries.
func NormalizeScore(avgInterest float64, dir Direction) float64 {
	base := avgInterest / 100.0
	switch dir {
	case DirectionRising:
		base *= risingMultiplier
	case DirectionFalling:
		base *= fallingMultiplier
	}
	if base < 0 {
		return 0
	}
	if base > 1 {
		return 1
	}
	return base
}

// AggregateResults folds per-keyword results into the patent-level view:
// the arithmetic mean of the scores, the best-scoring keyword (ties go to
// the first occurrence), and a majority-vote consensus over directions.
// Zero results yield the documented Unknown sentinel.
func AggregateResults(results []KeywordResult) Aggregate {
	if len(results) == 0 {
		return Aggregate{Results: []KeywordResult{}, Consensus: ConsensusUnknown}
	}

	sum := 0.0
	best := results[0]
	rising, falling := 0, 0
	for _, r := range results {
		sum += r.Score
		if r.Score > best.Score {
			best = r
		}
		switch r.Direction {
		case DirectionRising:
			rising++
		case DirectionFalling:
			falling++
		}
	}

	consensus := ConsensusMixed
	if rising >= 2 {
		consensus = ConsensusRising
	} else if falling >= 2 {
		consensus = ConsensusFalling
	}

	return Aggregate{
		Results:      results,
		AverageScore: sum / float64(len(results)),
		BestKeyword:  best.Keyword,
		Consensus:    consensus,
	}
}

func meanInterest(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Interest
	}
	return sum / float64(len(points))
}

var nonWordRe = regexp.MustCompile(`[^\w\s-]`)

// Patent-title boilerplate that carries no search signal.
var titleStopwords = map[string]struct{}{
	"method": {}, "system": {}, "apparatus": {}, "device": {}, "process": {},
	"means": {}, "assembly": {}, "composition": {}, "compound": {},
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {}, "with": {}, "using": {},
}

// KeywordFromTitle derives a search term from a patent title when no
// AI-generated keywords are available. Short titles are used whole; longer
// ones are reduced to their first few substantive words.
func KeywordFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	clean := nonWordRe.ReplaceAllString(title, "")

	if len(strings.Fields(clean)) <= 5 {
		return truncate(strings.TrimSpace(clean), 100)
	}

	words := make([]string, 0, 4)
	for _, w := range strings.Fields(strings.ToLower(clean)) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := titleStopwords[w]; stop {
			continue
		}
		words = append(words, w)
		if len(words) == 4 {
			break
		}
	}
	if len(words) == 0 {
		return truncate(clean, 100)
	}
	return truncate(strings.Join(words, " "), 100)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
