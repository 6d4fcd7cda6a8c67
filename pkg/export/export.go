// Package export writes a series as a downloadable table.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solarsim/solarsim/pkg/types"
)

// SheetName is the worksheet XLSX exports are written to.
const SheetName = "Forecast"

// Header is the first row of every export.
var Header = []string{"Time", "Actual (kW)", "Predicted (kW)", "Temperature (°C)", "Weather"}

// timeLayout matches a JavaScript ISO string: UTC with milliseconds.
const timeLayout = "2006-01-02T15:04:05.000Z"

// ParseFormat returns the export format for s, ignoring case.
func ParseFormat(s string) (types.ExportFormat, error) {
	switch f := types.ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case types.ExportFormatCSV, types.ExportFormatXLSX:
		return f, nil
	case "":
		return types.ExportFormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown export format: %q", types.ErrInvalidParameter, s)
	}
}

// Filename returns the download name for a series exported at now.
func Filename(locationID string, format types.ExportFormat, now time.Time) string {
	return fmt.Sprintf("solar_forecast_%s_%s.%s", locationID, now.UTC().Format(time.DateOnly), format)
}

// Write writes series to w in the given format.
func Write(w io.Writer, format types.ExportFormat, series []types.Sample) error {
	switch format {
	case types.ExportFormatCSV:
		return CSV(w, series)
	case types.ExportFormatXLSX:
		return XLSX(w, series)
	default:
		return fmt.Errorf("%w: unknown export format: %q", types.ErrInvalidParameter, format)
	}
}

func row(s types.Sample) []string {
	return []string{
		s.Time.UTC().Format(timeLayout),
		fmt.Sprintf("%.2f", s.ActualKW),
		fmt.Sprintf("%.2f", s.PredictedKW),
		fmt.Sprintf("%.1f", s.TemperatureC),
		string(s.Weather),
	}
}

// CSV writes a header row and one row per sample.
func CSV(w io.Writer, series []types.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, s := range series {
		if err := cw.Write(row(s)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// XLSX writes the same table as CSV to a single worksheet. Power and
// temperature are stored as numbers rounded the same way CSV formats them.
func XLSX(w io.Writer, series []types.Sample) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i, s := range series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to get cell for row %d: %w", i, err)
		}
		values := []any{
			s.Time.UTC().Format(timeLayout),
			round(s.ActualKW, 2),
			round(s.PredictedKW, 2),
			round(s.TemperatureC, 1),
			string(s.Weather),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
