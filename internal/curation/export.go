package curation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joelkehle/patent-curation/internal/trends"
)

const (
	colFinalScore   = "Final_Score"
	colSummary      = "AI_Human_Abstract"
	colKeywords     = "AI_Keywords"
	colUseCases     = "AI_Use_Cases"
	colMarketNote   = "AI_Market_Potential"
	colTrendsAvg    = "Trends_Average_Score"
	colTrendsBest   = "Trends_Best_Keyword"
	colTrendsCons   = "Trends_Consensus"
	colCurationNote = "Curation_Comment"
	xlsxSheetName   = "Curation"
	scoreDecimals   = 4
)

// FileExporter writes the curation table as CSV, and optionally as an XLSX
// workbook alongside it. Export returns the CSV path.
type FileExporter struct {
	Dir      string
	Filename string
	Cols     ColumnMap
	XLSX     bool
}

func NewFileExporter(dir string, cols ColumnMap, xlsx bool) *FileExporter {
	return &FileExporter{Dir: dir, Cols: cols, XLSX: xlsx}
}

func (e *FileExporter) Export(patents []Patent) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := e.Filename
	if filename == "" {
		filename = fmt.Sprintf("top_%d_patents_for_curation.csv", len(patents))
	}
	csvPath := filepath.Join(e.Dir, filename)

	header, rows := BuildTable(patents, e.Cols)

	if err := writeCSV(csvPath, header, rows); err != nil {
		return "", err
	}
	if e.XLSX {
		xlsxPath := strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".xlsx"
		if err := writeXLSX(xlsxPath, header, rows); err != nil {
			return "", err
		}
	}
	return csvPath, nil
}

// BuildTable renders the curation table. Column order is fixed: final
// score first, identity and raw metrics next, then whichever optional
// enrichment and trend columns the run produced, a free-text annotation
// column for the curator, and abstract plus URL last.
func BuildTable(patents []Patent, cols ColumnMap) (header []string, rows [][]string) {
	hasEnrichment := false
	hasTrends := false
	for _, p := range patents {
		if p.Enrichment != nil {
			hasEnrichment = true
		}
		if p.Trends != nil {
			hasTrends = true
		}
	}

	header = []string{
		colFinalScore,
		cols.Title,
		cols.PublicationYear,
		cols.PatentCitations,
		cols.LiteratureCitations,
		cols.FamilySize,
	}
	if hasEnrichment {
		header = append(header, colSummary, colKeywords, colUseCases, colMarketNote)
	}
	if hasTrends {
		header = append(header, colTrendsAvg, colTrendsBest, colTrendsCons)
		for i := 1; i <= trends.MaxKeywordsPerPatent; i++ {
			header = append(header,
				fmt.Sprintf("Trends_Keyword_%d", i),
				fmt.Sprintf("Trends_Score_%d", i),
				fmt.Sprintf("Trends_Direction_%d", i),
				fmt.Sprintf("Trends_Interest_%d", i),
			)
		}
	}
	header = append(header, colCurationNote, cols.Abstract, cols.URL)

	rows = make([][]string, 0, len(patents))
	for _, p := range patents {
		row := []string{
			formatScore(p.FinalScore),
			p.Title,
			p.PublicationYear,
			formatNumber(p.PatentCitations),
			formatNumber(p.LiteratureCitations),
			formatNumber(p.FamilySize),
		}
		if hasEnrichment {
			row = append(row, enrichmentCells(p)...)
		}
		if hasTrends {
			row = append(row, trendCells(p)...)
		}
		row = append(row, "", p.Abstract, p.URL)
		rows = append(rows, row)
	}
	return header, rows
}

func enrichmentCells(p Patent) []string {
	if p.Enrichment == nil {
		return []string{"", "", "", ""}
	}
	return []string{
		p.Enrichment.Summary,
		strings.Join(p.Enrichment.Keywords, ", "),
		strings.Join(p.Enrichment.UseCases, " | "),
		p.Enrichment.MarketNote,
	}
}

func trendCells(p Patent) []string {
	cells := make([]string, 0, 3+4*trends.MaxKeywordsPerPatent)
	if p.Trends == nil {
		cells = append(cells, "", "", "")
	} else {
		cells = append(cells,
			formatScore(p.Trends.AverageScore),
			p.Trends.BestKeyword,
			string(p.Trends.Consensus),
		)
	}
	for i := 0; i < trends.MaxKeywordsPerPatent; i++ {
		if p.Trends == nil || i >= len(p.Trends.Results) {
			cells = append(cells, "", "", "", "")
			continue
		}
		r := p.Trends.Results[i]
		cells = append(cells,
			r.Keyword,
			formatScore(r.Score),
			string(r.Direction),
			formatNumber(r.AvgInterest),
		)
	}
	return cells
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeXLSX(path string, header []string, rows [][]string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), xlsxSheetName); err != nil {
		return err
	}
	writeRow := func(rowIdx int, cells []string) error {
		for colIdx, cell := range cells {
			ref, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err := wb.SetCellValue(xlsxSheetName, ref, cell); err != nil {
				return err
			}
		}
		return nil
	}
	if err := writeRow(1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return err
		}
	}
	return wb.SaveAs(path)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', scoreDecimals, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
