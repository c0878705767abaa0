package generator

import (
	"fmt"
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// Series assembles a time series of readings starting at start and advancing
// by interval for each subsequent reading. Every reading is drawn with the
// auto directive (independent 15% anomaly chance); no correlation is modeled
// between consecutive readings.
//
// The series covers both endpoints: floor(duration/interval)+1 readings, so
// duration=60s at interval=5s yields 13.
func (s *Synthesizer) Series(start time.Time, duration, interval time.Duration) (models.Series, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", models.ErrInvalidParameter, duration)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", models.ErrInvalidParameter, interval)
	}

	count := int(duration/interval) + 1
	series := make(models.Series, 0, count)
	for i := 0; i < count; i++ {
		ts := start.Add(time.Duration(i) * interval)
		series = append(series, s.Reading(ts, Auto()))
	}
	return series, nil
}
