package curation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joelkehle/patent-curation/internal/enrich"
	"github.com/joelkehle/patent-curation/internal/trends"
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type ProgressFn func(stage, message string)

// Enricher is the AI enrichment collaborator. A nil Enricher skips the
// stage.
type Enricher interface {
	EnrichPatent(ctx context.Context, title, abstract string) (enrich.Result, error)
}

// TrendAnalyzer is the trend-aggregation collaborator. A nil TrendAnalyzer
// skips the trend and rescore stages.
type TrendAnalyzer interface {
	AnalyzeKeywords(ctx context.Context, keywords []string) (trends.Aggregate, error)
}

// Exporter writes the final table and returns the output path.
type Exporter interface {
	Export(patents []Patent) (string, error)
}

type PipelineConfig struct {
	TopN    int
	Filters FilterConfig
	Weights Weights
}

// Pipeline sequences the curation run:
//
//	Loaded → Filtered → Scored → [Enriched] → [TrendAggregated → Rescored] → Exported
//
// Optional stages are skipped with a warning when their collaborator is
// absent; per-record collaborator failures degrade that record's fields and
// are counted, never aborting the batch. The run always exports whatever
// completed.
type Pipeline struct {
	cfg      PipelineConfig
	enricher Enricher
	analyzer TrendAnalyzer
	exporter Exporter
}

func NewPipeline(cfg PipelineConfig, enricher Enricher, analyzer TrendAnalyzer, exporter Exporter) *Pipeline {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return &Pipeline{cfg: cfg, enricher: enricher, analyzer: analyzer, exporter: exporter}
}

type RunSummary struct {
	LoadedRows    int
	FilteredRows  int
	CandidateRows int
	ExportedRows  int
	OutputPath    string

	StagesExecuted []string
	StagesSkipped  []string

	DegradedEnrichments  int
	DegradedTrendLookups int

	StartedAt   time.Time
	CompletedAt time.Time
}

func (p *Pipeline) Run(ctx context.Context, patents []Patent) ([]Patent, RunSummary, error) {
	return p.runWithProgress(ctx, patents, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, patents []Patent, progress ProgressFn) ([]Patent, RunSummary, error) {
	return p.runWithProgress(ctx, patents, progress)
}

func (p *Pipeline) runWithProgress(ctx context.Context, patents []Patent, progress ProgressFn) ([]Patent, RunSummary, error) {
	summary := RunSummary{StartedAt: time.Now(), LoadedRows: len(patents)}

	emit(progress, "filter", fmt.Sprintf("Filtering %d rows...", len(patents)))
	filtered := ApplyFilters(patents, p.cfg.Filters)
	summary.FilteredRows = len(filtered)
	summary.StagesExecuted = append(summary.StagesExecuted, "filter")
	emit(progress, "filter", fmt.Sprintf("Filter complete: %d of %d rows kept", len(filtered), len(patents)))

	emit(progress, "score", "Scoring base metrics...")
	scored, err := ScorePatents(ApplyMetricScores(filtered), p.cfg.Weights, BaseMetrics)
	if err != nil {
		return nil, summary, &StageError{Stage: "score", Err: err}
	}
	summary.StagesExecuted = append(summary.StagesExecuted, "score")

	top := scored
	if len(top) > p.cfg.TopN {
		top = top[:p.cfg.TopN]
	}
	summary.CandidateRows = len(top)

	if p.enricher == nil {
		log.Printf("pipeline warning: enrichment collaborator not configured, skipping enrich stage")
		summary.StagesSkipped = append(summary.StagesSkipped, "enrich")
	} else {
		emit(progress, "enrich", fmt.Sprintf("Enriching %d candidates...", len(top)))
		top, summary.DegradedEnrichments, err = p.enrichStage(ctx, top, progress)
		if err != nil {
			return nil, summary, &StageError{Stage: "enrich", Err: err}
		}
		summary.StagesExecuted = append(summary.StagesExecuted, "enrich")
	}

	if p.analyzer == nil {
		log.Printf("pipeline warning: trend collaborator not configured, skipping trend and rescore stages")
		summary.StagesSkipped = append(summary.StagesSkipped, "trends", "rescore")
	} else {
		emit(progress, "trends", fmt.Sprintf("Aggregating trend signals for %d candidates...", len(top)))
		top, summary.DegradedTrendLookups, err = p.trendStage(ctx, top, progress)
		if err != nil {
			return nil, summary, &StageError{Stage: "trends", Err: err}
		}
		summary.StagesExecuted = append(summary.StagesExecuted, "trends")

		emit(progress, "rescore", "Rescoring with trend signal...")
		top, err = ScorePatents(top, p.cfg.Weights, AllMetrics)
		if err != nil {
			return nil, summary, &StageError{Stage: "rescore", Err: err}
		}
		summary.StagesExecuted = append(summary.StagesExecuted, "rescore")
	}

	if p.exporter != nil {
		emit(progress, "export", fmt.Sprintf("Exporting %d rows...", len(top)))
		path, err := p.exporter.Export(top)
		if err != nil {
			return nil, summary, &StageError{Stage: "export", Err: err}
		}
		summary.OutputPath = path
		summary.StagesExecuted = append(summary.StagesExecuted, "export")
	}

	summary.ExportedRows = len(top)
	summary.CompletedAt = time.Now()
	return top, summary, nil
}

// enrichStage calls the AI collaborator once per candidate, sequentially.
// A failed call degrades that record to the empty enrichment sentinel; the
// rest of the batch continues.
func (p *Pipeline) enrichStage(ctx context.Context, patents []Patent, progress ProgressFn) ([]Patent, int, error) {
	out := make([]Patent, len(patents))
	copy(out, patents)

	degraded := 0
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, degraded, err
		}
		emit(progress, "enrich", fmt.Sprintf("Enriching %d/%d: %s", i+1, len(out), out[i].Title))
		res, err := p.enricher.EnrichPatent(ctx, out[i].Title, out[i].Abstract)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, degraded, err
			}
			log.Printf("enrichment degraded title=%q err=%v", out[i].Title, err)
			degraded++
			res = enrich.Result{}
		}
		resCopy := res
		out[i].Enrichment = &resCopy
	}
	return out, degraded, nil
}

// trendStage aggregates up to three keyword trend signals per candidate and
// records the average as the trend metric score. Candidates without AI
// keywords fall back to a keyword derived from the title; candidates with
// no usable keyword at all get the documented unknown sentinel.
func (p *Pipeline) trendStage(ctx context.Context, patents []Patent, progress ProgressFn) ([]Patent, int, error) {
	out := make([]Patent, len(patents))
	copy(out, patents)

	degraded := 0
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, degraded, err
		}
		keywords := trendKeywords(out[i])
		emit(progress, "trends", fmt.Sprintf("Trend lookup %d/%d keywords=%v", i+1, len(out), keywords))

		var agg trends.Aggregate
		if len(keywords) == 0 {
			agg = trends.AggregateResults(nil)
		} else {
			var err error
			agg, err = p.analyzer.AnalyzeKeywords(ctx, keywords)
			if err != nil {
				return nil, degraded, err
			}
		}
		degraded += agg.Degraded

		aggCopy := agg
		out[i].Trends = &aggCopy

		// Copy-on-write: the metric map came in from the prior stage.
		scores := make(map[Metric]float64, len(out[i].MetricScores)+1)
		for m, s := range out[i].MetricScores {
			scores[m] = s
		}
		scores[MetricTrendScore] = agg.AverageScore
		out[i].MetricScores = scores
	}
	return out, degraded, nil
}

func trendKeywords(p Patent) []string {
	if p.Enrichment != nil && len(p.Enrichment.Keywords) > 0 {
		kws := p.Enrichment.Keywords
		if len(kws) > trends.MaxKeywordsPerPatent {
			kws = kws[:trends.MaxKeywordsPerPatent]
		}
		return kws
	}
	if kw := trends.KeywordFromTitle(p.Title); kw != "" {
		return []string{kw}
	}
	return nil
}

func emit(progress ProgressFn, stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}
