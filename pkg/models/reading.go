// Package models defines the vital-sign reading types shared across VitalSim.
package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParameter indicates a caller-supplied parameter that can never be
// valid (non-positive duration or interval, unrecognized anomaly kind).
// It is surfaced immediately and never retried.
var ErrInvalidParameter = errors.New("invalid parameter")

// TimeLayout is the serialized timestamp format: ISO-8601-like local time
// without a timezone offset, matching the wire contract for readings.
const TimeLayout = "2006-01-02T15:04:05"

// Timestamp is a second-resolution point in time that serializes without a
// timezone offset.
type Timestamp time.Time

// NewTimestamp truncates t to second resolution.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Truncate(time.Second))
}

// Time returns the underlying time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

// String formats the timestamp using TimeLayout.
func (ts Timestamp) String() string {
	return time.Time(ts).Format(TimeLayout)
}

// MarshalJSON encodes the timestamp as a TimeLayout string.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.String() + `"`), nil
}

// UnmarshalJSON decodes a TimeLayout string.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp %s: not a JSON string", s)
	}
	t, err := time.ParseInLocation(TimeLayout, s[1:len(s)-1], time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	*ts = Timestamp(t)
	return nil
}

// Status classifies a reading as within or outside normal ranges.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
)

// AnomalyKind identifies one of the eight injectable out-of-range conditions.
// The set is closed; generation dispatches on it with an exhaustive switch.
type AnomalyKind string

const (
	AnomalyHighHeartRate AnomalyKind = "high_heart_rate"
	AnomalyLowHeartRate  AnomalyKind = "low_heart_rate"
	AnomalyLowOxygen     AnomalyKind = "low_oxygen"
	AnomalyHighTemp      AnomalyKind = "high_temperature"
	AnomalyLowTemp       AnomalyKind = "low_temperature"
	AnomalyHighBP        AnomalyKind = "high_bp"
	AnomalyLowBP         AnomalyKind = "low_bp"
	AnomalyHighStress    AnomalyKind = "high_stress"
)

// AnomalyKinds returns all kinds in declaration order.
func AnomalyKinds() []AnomalyKind {
	return []AnomalyKind{
		AnomalyHighHeartRate,
		AnomalyLowHeartRate,
		AnomalyLowOxygen,
		AnomalyHighTemp,
		AnomalyLowTemp,
		AnomalyHighBP,
		AnomalyLowBP,
		AnomalyHighStress,
	}
}

// ParseAnomalyKind converts a wire string into an AnomalyKind.
func ParseAnomalyKind(s string) (AnomalyKind, error) {
	k := AnomalyKind(s)
	for _, known := range AnomalyKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized anomaly kind %q", ErrInvalidParameter, s)
}

// Reading is one simulated instantaneous vital-sign measurement.
// Immutable once produced. Alert is non-nil if and only if Status is warning;
// a reading encodes at most one anomaly condition.
type Reading struct {
	Timestamp   Timestamp `json:"timestamp"`
	HeartRate   int       `json:"heart_rate"`
	SpO2        float64   `json:"spo2"`
	Temperature float64   `json:"temperature"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	Steps       int       `json:"steps"`
	StressLevel int       `json:"stress_level"`
	Status      Status    `json:"status"`
	Alert       *string   `json:"alert"` // explicit null when absent
}

// Series is an ordered sequence of readings at fixed time spacing.
// Append-only during assembly, immutable afterwards.
type Series []Reading

// AlertEntry locates one warning reading within a series.
type AlertEntry struct {
	Position  int       `json:"position"` // 1-based index in the series
	Timestamp Timestamp `json:"timestamp"`
	Message   string    `json:"message"`
}

// Summary is a derived, non-owning view over a series. It must be recomputed
// if the series it was computed from is regenerated.
type Summary struct {
	TotalReadings  int          `json:"total_readings"`
	WarningCount   int          `json:"warning_count"`
	WarningPercent float64      `json:"warning_percent"` // rounded to 1 decimal
	Alerts         []AlertEntry `json:"alerts"`
}
