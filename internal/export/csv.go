package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// WriteCSV writes the series as a table: a header row with the canonical
// field names followed by one row per reading. A nil alert becomes an empty
// cell.
func WriteCSV(w io.Writer, series models.Series) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(FieldNames); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, r := range series {
		alert := ""
		if r.Alert != nil {
			alert = *r.Alert
		}
		row := []string{
			r.Timestamp.String(),
			strconv.Itoa(r.HeartRate),
			strconv.FormatFloat(r.SpO2, 'f', 1, 64),
			strconv.FormatFloat(r.Temperature, 'f', 1, 64),
			strconv.Itoa(r.SystolicBP),
			strconv.Itoa(r.DiastolicBP),
			strconv.Itoa(r.Steps),
			strconv.Itoa(r.StressLevel),
			string(r.Status),
			alert,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table previously produced by WriteCSV back into a series.
func ReadCSV(r io.Reader) (models.Series, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != len(FieldNames) {
		return nil, fmt.Errorf("csv header has %d columns, want %d", len(header), len(FieldNames))
	}

	var series models.Series
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		reading, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		series = append(series, reading)
	}
	return series, nil
}

func parseRow(row []string) (models.Reading, error) {
	var r models.Reading

	ts, err := time.ParseInLocation(models.TimeLayout, row[0], time.Local)
	if err != nil {
		return r, fmt.Errorf("timestamp: %w", err)
	}
	r.Timestamp = models.NewTimestamp(ts)

	ints := []struct {
		col  int
		name string
		dst  *int
	}{
		{1, "heart_rate", &r.HeartRate},
		{4, "systolic_bp", &r.SystolicBP},
		{5, "diastolic_bp", &r.DiastolicBP},
		{6, "steps", &r.Steps},
		{7, "stress_level", &r.StressLevel},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(row[f.col])
		if err != nil {
			return r, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	if r.SpO2, err = strconv.ParseFloat(row[2], 64); err != nil {
		return r, fmt.Errorf("spo2: %w", err)
	}
	if r.Temperature, err = strconv.ParseFloat(row[3], 64); err != nil {
		return r, fmt.Errorf("temperature: %w", err)
	}

	r.Status = models.Status(row[8])
	if row[9] != "" {
		alert := row[9]
		r.Alert = &alert
	}
	return r, nil
}
