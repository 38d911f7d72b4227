package httpapi

import (
	"bytes"
	"fmt"

	"github.com/Adrieliyo/risk-advisor-backend/internal/service"

	"github.com/xuri/excelize/v2"
)

const excelTimeLayout = "2006-01-02 15:04:05"

type reportSheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// buildTripReportExcel renders a workbook with Summary, Readings and Alerts
// sheets.
func buildTripReportExcel(report *service.TripReport) ([]byte, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := []reportSheet{summarySheet(report), readingsSheet(report), alertsSheet(report)}
	for i, s := range sheets {
		idx, err := f.NewSheet(s.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeReportSheet(f, s, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeReportSheet(f *excelize.File, s reportSheet, headerStyle int) error {
	for col, header := range s.headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(s.name, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(s.name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, width := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, row := range s.rows {
		for c, value := range row {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.name, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s on %s: %w", cell, s.name, err)
			}
		}
	}

	if err := f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes on %s: %w", s.name, err)
	}
	return nil
}

// summarySheet is a two-column field/value sheet.
func summarySheet(report *service.TripReport) reportSheet {
	sum := report.Summary
	driverName := ""
	if report.Driver != nil {
		driverName = report.Driver.Name
	}
	ended := "active"
	if report.Trip.EndedAt != nil {
		ended = report.Trip.EndedAt.Format(excelTimeLayout)
	}
	return reportSheet{
		name:    "Summary",
		headers: []string{"Field", "Value"},
		widths:  []float64{22, 40},
		rows: [][]any{
			{"Trip ID", report.Trip.TripID},
			{"Driver ID", report.Trip.DriverID},
			{"Driver Name", driverName},
			{"Started At", report.Trip.StartedAt.Format(excelTimeLayout)},
			{"Ended At", ended},
			{"Duration (min)", floatOrBlank(sum.DurationMinutes)},
			{"Total Readings", sum.TotalReadings},
			{"Total Alerts", sum.TotalAlerts},
			{"Avg Heart Rate", floatOrBlank(sum.AvgHeartRate)},
			{"Total Nods", sum.TotalNods},
			{"Total Yawns", sum.TotalYawns},
		},
	}
}

func readingsSheet(report *service.TripReport) reportSheet {
	rows := make([][]any, 0, len(report.Readings))
	for _, r := range report.Readings {
		var hr any
		if r.HeartRate != nil {
			hr = *r.HeartRate
		}
		rows = append(rows, []any{
			r.RecordedAt.Format(excelTimeLayout),
			hr,
			r.NodCount,
			r.YawnCount,
			floatOrBlank(r.EyelidClosure),
			r.ReadingID,
		})
	}
	return reportSheet{
		name:    "Readings",
		headers: []string{"Recorded At", "Heart Rate", "Nods", "Yawns", "Eyelid Closure", "Reading ID"},
		widths:  []float64{20, 12, 10, 10, 15, 38},
		rows:    rows,
	}
}

func alertsSheet(report *service.TripReport) reportSheet {
	rows := make([][]any, 0, len(report.Alerts))
	for _, a := range report.Alerts {
		rows = append(rows, []any{
			a.TriggeredAt.Format(excelTimeLayout),
			string(a.Kind),
			string(a.Severity),
			a.AlertID,
		})
	}
	return reportSheet{
		name:    "Alerts",
		headers: []string{"Triggered At", "Kind", "Severity", "Alert ID"},
		widths:  []float64{20, 22, 12, 38},
		rows:    rows,
	}
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
