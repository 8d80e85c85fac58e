package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// TimetableGrid describes a weekly timetable laid out as days x periods.
type TimetableGrid struct {
	Title   string
	Days    []string
	Periods int
	// Cells maps day -> period -> display text (subject / teacher).
	Cells map[string]map[int]string
}

// PDFExporter renders timetable grids into an A4 landscape PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document for the provided grid.
func (e *PDFExporter) Render(grid TimetableGrid) ([]byte, error) {
	if len(grid.Days) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day")
	}
	if grid.Periods <= 0 {
		return nil, fmt.Errorf("pdf requires a positive period count")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	dayColWidth := 32.0
	colWidth := (277.0 - dayColWidth) / float64(grid.Periods)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(dayColWidth, 8, "Day", "1", 0, "C", false, 0, "")
	for p := 1; p <= grid.Periods; p++ {
		pdf.CellFormat(colWidth, 8, fmt.Sprintf("Period %d", p), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, day := range grid.Days {
		pdf.CellFormat(dayColWidth, 7, day, "1", 0, "", false, 0, "")
		for p := 1; p <= grid.Periods; p++ {
			value := ""
			if row, ok := grid.Cells[day]; ok {
				value = row[p]
			}
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
