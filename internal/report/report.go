// Package report builds a human-readable run report for one curation pass
// and renders it to HTML or PDF for sharing with the licensing team.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/joelkehle/patent-curation/internal/curation"
)

// BuildMarkdown writes the run report: run statistics first, then one
// section per exported candidate.
func BuildMarkdown(summary curation.RunSummary, patents []curation.Patent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Patent Curation Report\n\n")
	fmt.Fprintf(&b, "- Date: %s\n", summary.CompletedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Source rows: %d\n", summary.LoadedRows)
	fmt.Fprintf(&b, "- Rows after filters: %d\n", summary.FilteredRows)
	fmt.Fprintf(&b, "- Candidates scored: %d\n", summary.CandidateRows)
	fmt.Fprintf(&b, "- Rows exported: %d\n", summary.ExportedRows)
	if summary.OutputPath != "" {
		fmt.Fprintf(&b, "- Spreadsheet: %s\n", summary.OutputPath)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Run Stages\n\n")
	fmt.Fprintf(&b, "- Executed: %s\n", strings.Join(summary.StagesExecuted, ", "))
	if len(summary.StagesSkipped) > 0 {
		fmt.Fprintf(&b, "- Skipped: %s\n", strings.Join(summary.StagesSkipped, ", "))
	}
	if summary.DegradedEnrichments > 0 {
		fmt.Fprintf(&b, "- Degraded enrichments: %d\n", summary.DegradedEnrichments)
	}
	if summary.DegradedTrendLookups > 0 {
		fmt.Fprintf(&b, "- Degraded trend lookups: %d\n", summary.DegradedTrendLookups)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Shortlist\n\n")
	if len(patents) == 0 {
		fmt.Fprintf(&b, "No candidates survived the filters.\n\n")
	}
	for i, p := range patents {
		appendCandidate(&b, i+1, p)
	}

	fmt.Fprintf(&b, "## How This Report Works\n\n")
	fmt.Fprintf(&b, "Candidates are expired patents ranked by a weighted blend of forward patent citations, non-patent literature citations, and patent family size, each log-scaled and normalized against the batch. ")
	fmt.Fprintf(&b, "When trend analysis ran, current search interest in the technology's keywords contributes a fourth signal. ")
	fmt.Fprintf(&b, "Scores compare candidates within this batch only; they are not absolute market estimates.\n")
	return b.String()
}

func appendCandidate(b *strings.Builder, rank int, p curation.Patent) {
	fmt.Fprintf(b, "### %d. %s\n\n", rank, p.Title)
	fmt.Fprintf(b, "- Score: **%.4f**\n", p.FinalScore)
	if p.PublicationYear != "" {
		fmt.Fprintf(b, "- Published: %s\n", p.PublicationYear)
	}
	fmt.Fprintf(b, "- Citations: %.0f patent, %.0f literature; family size %.0f\n",
		p.PatentCitations, p.LiteratureCitations, p.FamilySize)
	if p.URL != "" {
		fmt.Fprintf(b, "- Record: %s\n", p.URL)
	}
	b.WriteString("\n")

	if p.Enrichment != nil && !p.Enrichment.Empty() {
		fmt.Fprintf(b, "%s\n\n", p.Enrichment.Summary)
		if len(p.Enrichment.Keywords) > 0 {
			fmt.Fprintf(b, "- Keywords: %s\n", strings.Join(p.Enrichment.Keywords, ", "))
		}
		for _, uc := range p.Enrichment.UseCases {
			fmt.Fprintf(b, "- Use case: %s\n", uc)
		}
		if p.Enrichment.MarketNote != "" {
			fmt.Fprintf(b, "- Market note: %s\n", p.Enrichment.MarketNote)
		}
		b.WriteString("\n")
	}

	if p.Trends != nil && len(p.Trends.Results) > 0 {
		fmt.Fprintf(b, "Trend consensus: **%s** (average score %.2f, strongest keyword %q).\n\n",
			p.Trends.Consensus, p.Trends.AverageScore, p.Trends.BestKeyword)
		for _, r := range p.Trends.Results {
			fmt.Fprintf(b, "- %q: %s, average interest %.0f\n", r.Keyword, r.Direction, r.AvgInterest)
		}
		b.WriteString("\n")
	}
}
