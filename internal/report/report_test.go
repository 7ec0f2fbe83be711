package report

import (
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/patent-curation/internal/curation"
	"github.com/joelkehle/patent-curation/internal/enrich"
	"github.com/joelkehle/patent-curation/internal/trends"
)

func sampleSummary() curation.RunSummary {
	return curation.RunSummary{
		LoadedRows:     120,
		FilteredRows:   34,
		CandidateRows:  5,
		ExportedRows:   5,
		OutputPath:     "output/top_5_patents_for_curation.csv",
		StagesExecuted: []string{"filter", "score", "enrich", "trends", "rescore", "export"},
		CompletedAt:    time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
	}
}

func samplePatent() curation.Patent {
	return curation.Patent{
		Title:               "Thermal Cycler",
		PublicationYear:     "2001",
		URL:                 "https://example.org/p/1",
		PatentCitations:     42,
		LiteratureCitations: 7,
		FamilySize:          12,
		FinalScore:          0.8125,
		Enrichment: &enrich.Result{
			Summary:    "A machine that heats and cools samples in cycles.",
			Keywords:   []string{"pcr machine"},
			UseCases:   []string{"Lab diagnostics"},
			MarketNote: "Strong demand in diagnostics.",
		},
		Trends: &trends.Aggregate{
			Results: []trends.KeywordResult{
				{Keyword: "pcr machine", AvgInterest: 62, Direction: trends.DirectionRising, Score: 0.806},
			},
			AverageScore: 0.806,
			BestKeyword:  "pcr machine",
			Consensus:    trends.ConsensusRising,
		},
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(sampleSummary(), []curation.Patent{samplePatent()})

	for _, want := range []string{
		"# Patent Curation Report",
		"- Source rows: 120",
		"- Rows after filters: 34",
		"### 1. Thermal Cycler",
		"- Score: **0.8125**",
		"A machine that heats and cools samples in cycles.",
		"Trend consensus: **Rising**",
		"## How This Report Works",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestBuildMarkdownSkippedStagesAndDegradation(t *testing.T) {
	summary := sampleSummary()
	summary.StagesSkipped = []string{"enrich"}
	summary.DegradedTrendLookups = 2

	md := BuildMarkdown(summary, nil)
	if !strings.Contains(md, "- Skipped: enrich") {
		t.Error("report should list skipped stages")
	}
	if !strings.Contains(md, "- Degraded trend lookups: 2") {
		t.Error("report should count degraded lookups")
	}
	if !strings.Contains(md, "No candidates survived the filters.") {
		t.Error("empty shortlist should be called out")
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(BuildMarkdown(sampleSummary(), []curation.Patent{samplePatent()}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<h1>Patent Curation Report</h1>") {
		t.Error("missing rendered title")
	}
	if !strings.Contains(html, `<h2 class="page-break">How This Report Works</h2>`) {
		t.Error("methodology section should start on a new page")
	}
	if !strings.Contains(html, "<style>") {
		t.Error("document should carry the embedded stylesheet")
	}
}
