package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/pipeline"
)

// Sheet names of the XLSX export.
const (
	SheetHourly     = "hourly"
	SheetCapability = "capability"
	SheetDebug      = "debug"
)

// BuildXLSX renders a day view as an XLSX workbook. Absent values are left blank.
func BuildXLSX(v *pipeline.DayView) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetHourly); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCapability, SheetDebug} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writeHourly(f, v)
	writeCapability(f, v)
	writeDebug(f, v)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		if val == nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, val)
	}
}

func writeHourly(f *excelize.File, v *pipeline.DayView) {
	header := []any{"date", "he"}
	for _, c := range hourlyColumns {
		header = append(header, c.Name)
	}
	header = append(header, "cushion_flag", "provenance")
	setRow(f, SheetHourly, 1, header...)

	for i, r := range v.Records {
		values := []any{r.Date.Format(domain.DateLayout), r.HE}
		for _, c := range hourlyColumns {
			if p := c.Value(r); p != nil {
				values = append(values, *p)
			} else {
				values = append(values, nil)
			}
		}
		values = append(values, string(r.CushionFlag), string(r.Provenance))
		setRow(f, SheetHourly, i+2, values...)
	}
}

func writeCapability(f *excelize.File, v *pipeline.DayView) {
	setRow(f, SheetCapability, 1, "fuel", "daily_avg_pct", "hours", "current_pct")
	if v.Capability == nil {
		return
	}
	current := make(map[string]float64, len(v.Capability.Current))
	for _, c := range v.Capability.Current {
		current[c.Fuel] = c.Percent
	}
	for i, fa := range v.Capability.DailyAverage {
		var cur any
		if p, ok := current[fa.Fuel]; ok {
			cur = p
		}
		setRow(f, SheetCapability, i+2, fa.Fuel, fa.Percent, fa.Hours, cur)
	}
}

func writeDebug(f *excelize.File, v *pipeline.DayView) {
	setRow(f, SheetDebug, 1, "report", "status", "reason", "lines", "rows", "parsed", "skipped", "dates", "missing", "notes")
	for i, d := range v.DebugList() {
		setRow(f, SheetDebug, i+2,
			d.Report,
			string(d.Status),
			d.Reason,
			d.Lines,
			d.Rows,
			d.Parsed,
			d.Skipped,
			strings.Join(d.Dates, " "),
			strings.Join(d.Missing, "; "),
			strings.Join(d.Notes, "; "),
		)
	}
}
