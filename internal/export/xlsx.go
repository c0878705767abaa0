package export

import (
	"fmt"
	"io"

	"github.com/HealthForge/vitalsim/pkg/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Readings"

// WriteXLSX writes the series as an XLSX workbook with a single sheet laid
// out like the CSV export: bold header row, one row per reading.
func WriteXLSX(w io.Writer, series models.Series) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, name := range FieldNames {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("set header %q: %w", name, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %q: %w", name, err)
		}
	}

	for i, r := range series {
		alert := ""
		if r.Alert != nil {
			alert = *r.Alert
		}
		values := []any{
			r.Timestamp.String(),
			r.HeartRate,
			r.SpO2,
			r.Temperature,
			r.SystolicBP,
			r.DiastolicBP,
			r.Steps,
			r.StressLevel,
			string(r.Status),
			alert,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("row %d cell: %w", i, err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("set row %d col %d: %w", i, col, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
