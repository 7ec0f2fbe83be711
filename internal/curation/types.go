// Package curation ranks expired patents by commercial potential. It owns
// the tabular data model, the filtering and scoring math, and the pipeline
// that sequences ingest, enrichment, trend analysis, and export.
package curation

import (
	"github.com/joelkehle/patent-curation/internal/enrich"
	"github.com/joelkehle/patent-curation/internal/trends"
)

// Metric identifies one scoring component. The three base metrics come
// straight from the source table; the trend metric only exists after the
// trend stage has run.
type Metric string

const (
	MetricPatentCitations     Metric = "patent_citations"
	MetricLiteratureCitations Metric = "literature_citations"
	MetricFamilySize          Metric = "family_size"
	MetricTrendScore          Metric = "trend_score"
)

// BaseMetrics are the raw columns normalized and combined in the first
// scoring pass.
var BaseMetrics = []Metric{MetricPatentCitations, MetricLiteratureCitations, MetricFamilySize}

// AllMetrics includes the trend score for the rescoring pass.
var AllMetrics = []Metric{MetricPatentCitations, MetricLiteratureCitations, MetricFamilySize, MetricTrendScore}

// Patent is one row of the curation table: the raw attributes read at
// ingest plus the derived attributes each pipeline stage adds. Stages pass
// values, never share mutable rows.
type Patent struct {
	PatentCitations     float64
	LiteratureCitations float64
	FamilySize          float64
	LegalStatus         string
	Title               string
	Abstract            string
	PublicationYear     string
	URL                 string

	LogValues    map[Metric]float64
	MetricScores map[Metric]float64
	FinalScore   float64

	Enrichment *enrich.Result
	Trends     *trends.Aggregate
}

func (p Patent) rawMetric(m Metric) (float64, bool) {
	switch m {
	case MetricPatentCitations:
		return p.PatentCitations, true
	case MetricLiteratureCitations:
		return p.LiteratureCitations, true
	case MetricFamilySize:
		return p.FamilySize, true
	default:
		return 0, false
	}
}
