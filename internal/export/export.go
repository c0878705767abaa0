// Package export serializes assembled series into their durable formats:
// a JSON document, a tabular CSV, and an XLSX workbook. All three share the
// same flat record shape and column order.
package export

import (
	"fmt"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// Format identifies a supported export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FieldNames is the canonical column order for tabular exports.
var FieldNames = []string{
	"timestamp",
	"heart_rate",
	"spo2",
	"temperature",
	"systolic_bp",
	"diastolic_bp",
	"steps",
	"stress_level",
	"status",
	"alert",
}

// ParseFormat validates a wire format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", models.ErrInvalidParameter, s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}
