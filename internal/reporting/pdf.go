package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/pipeline"
)

// pdfColumns are the hourly columns printed in the PDF table.
var pdfColumns = []string{
	"forecast_price", "actual_price", "forecast_load", "actual_load",
	"cushion_mw", "cushion_pct", "wind_actual", "solar_actual", "net_interchange",
}

// BuildPDF renders a one-page landscape summary of a day view.
func BuildPDF(v *pipeline.DayView) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Market Day %s", v.Date.Format(domain.DateLayout)))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", v.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Snapshot: %s", v.SnapshotID))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Reference: %s  Live-augmented hours: %d", orDash(v.Reference.Source), v.LiveHours))
	pdf.Ln(7)

	cols := selectColumns(pdfColumns)
	const (
		heWidth   = 10.0
		colWidth  = 24.0
		flagWidth = 24.0
		rowHeight = 5.0
	)

	pdf.SetFont("Arial", "B", 7)
	pdf.CellFormat(heWidth, rowHeight, "HE", "1", 0, "C", false, 0, "")
	for _, c := range cols {
		pdf.CellFormat(colWidth, rowHeight, c.Name, "1", 0, "C", false, 0, "")
	}
	pdf.CellFormat(flagWidth, rowHeight, "flag", "1", 0, "C", false, 0, "")
	pdf.CellFormat(flagWidth, rowHeight, "provenance", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for _, r := range v.Records {
		pdf.CellFormat(heWidth, rowHeight, fmt.Sprintf("%d", r.HE), "1", 0, "C", false, 0, "")
		for _, c := range cols {
			pdf.CellFormat(colWidth, rowHeight, formatValue(c.Value(r), c.Decimals, "-"), "1", 0, "R", false, 0, "")
		}
		pdf.CellFormat(flagWidth, rowHeight, string(r.CushionFlag), "1", 0, "C", false, 0, "")
		pdf.CellFormat(flagWidth, rowHeight, string(r.Provenance), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
