package curation

import "strings"

type FilterConfig struct {
	// LegalStatus keeps only rows whose status equals this value
	// (case-insensitive). Typically "EXPIRED".
	LegalStatus string

	// MinCitationsTotal keeps only rows where patent plus literature
	// citations reach this threshold.
	MinCitationsTotal float64
}

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{LegalStatus: "EXPIRED", MinCitationsTotal: 5}
}

// ApplyFilters runs the legal-status and citation filters in sequence.
// Filters only ever drop rows; the result is a new slice.
func ApplyFilters(patents []Patent, cfg FilterConfig) []Patent {
	out := FilterLegalStatus(patents, cfg.LegalStatus)
	out = FilterMinCitations(out, cfg.MinCitationsTotal)
	return out
}

func FilterLegalStatus(patents []Patent, status string) []Patent {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return append([]Patent(nil), patents...)
	}
	out := make([]Patent, 0, len(patents))
	for _, p := range patents {
		if strings.ToUpper(strings.TrimSpace(p.LegalStatus)) == status {
			out = append(out, p)
		}
	}
	return out
}

func FilterMinCitations(patents []Patent, min float64) []Patent {
	out := make([]Patent, 0, len(patents))
	for _, p := range patents {
		if p.PatentCitations+p.LiteratureCitations >= min {
			out = append(out, p)
		}
	}
	return out
}
