package generator

import (
	"math"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// Summarize derives aggregate statistics and the ordered alert listing from a
// series. It holds no state and is safe to call repeatedly and concurrently
// on the same immutable series. An empty series yields a zero summary with
// 0.0% warnings rather than an error.
func Summarize(series models.Series) models.Summary {
	sum := models.Summary{
		TotalReadings: len(series),
		Alerts:        []models.AlertEntry{},
	}

	for i, r := range series {
		if r.Status != models.StatusWarning {
			continue
		}
		sum.WarningCount++
		msg := ""
		if r.Alert != nil {
			msg = *r.Alert
		}
		sum.Alerts = append(sum.Alerts, models.AlertEntry{
			Position:  i + 1,
			Timestamp: r.Timestamp,
			Message:   msg,
		})
	}

	if sum.TotalReadings > 0 {
		pct := float64(sum.WarningCount) / float64(sum.TotalReadings) * 100
		sum.WarningPercent = math.Round(pct*10) / 10
	}
	return sum
}
