package curation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ColumnMap names the source-table headers for each semantic field. The
// mapping is resolved once at ingest; downstream stages work on the typed
// Patent fields and never look a column up by string again.
type ColumnMap struct {
	PatentCitations     string `koanf:"citations_patent"`
	LiteratureCitations string `koanf:"citations_npl"`
	FamilySize          string `koanf:"family_size"`
	LegalStatus         string `koanf:"legal_status"`
	Title               string `koanf:"title"`
	Abstract            string `koanf:"abstract"`
	PublicationYear     string `koanf:"pub_year"`
	URL                 string `koanf:"url"`
}

// DefaultColumnMap matches the headers of a Lens.org patent export.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		PatentCitations:     "Cited by Patent Count",
		LiteratureCitations: "NPL Citation Count",
		FamilySize:          "Simple Family Size",
		LegalStatus:         "Legal Status",
		Title:               "Title",
		Abstract:            "Abstract",
		PublicationYear:     "Publication Year",
		URL:                 "URL",
	}
}

func (c ColumnMap) required() []string {
	return []string{
		c.PatentCitations, c.LiteratureCitations, c.FamilySize,
		c.LegalStatus, c.Title, c.Abstract, c.PublicationYear, c.URL,
	}
}

// LoadCSV reads the source table and maps rows into Patent values. The
// header row is validated up front: every missing required column is
// reported in one error so a bad export fails fast with the full list.
// Numeric fields that do not parse are coerced to 0; legal status is
// upper-cased and trimmed at ingest.
func LoadCSV(path string, cols ColumnMap) ([]Patent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source table: %w", err)
	}
	defer f.Close()
	return ReadTable(f, cols)
}

func ReadTable(r io.Reader, cols ColumnMap) ([]Patent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("source table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range cols.required() {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	field := func(row []string, name string) string {
		i := index[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var patents []Patent
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(patents)+2, err)
		}
		patents = append(patents, Patent{
			PatentCitations:     coerceNumeric(field(row, cols.PatentCitations)),
			LiteratureCitations: coerceNumeric(field(row, cols.LiteratureCitations)),
			FamilySize:          coerceNumeric(field(row, cols.FamilySize)),
			LegalStatus:         strings.ToUpper(strings.TrimSpace(field(row, cols.LegalStatus))),
			Title:               strings.TrimSpace(field(row, cols.Title)),
			Abstract:            strings.TrimSpace(field(row, cols.Abstract)),
			PublicationYear:     strings.TrimSpace(field(row, cols.PublicationYear)),
			URL:                 strings.TrimSpace(field(row, cols.URL)),
		})
	}
	return patents, nil
}

func coerceNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
