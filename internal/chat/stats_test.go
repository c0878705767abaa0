package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

func strPtr(s string) *string { return &s }

func testSeries() models.Series {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	return models.Series{
		{
			Timestamp:   models.NewTimestamp(base),
			HeartRate:   80,
			SpO2:        97.0,
			Temperature: 36.6,
			SystolicBP:  120,
			DiastolicBP: 80,
			Steps:       50,
			StressLevel: 3,
			Status:      models.StatusNormal,
		},
		{
			Timestamp:   models.NewTimestamp(base.Add(5 * time.Second)),
			HeartRate:   130,
			SpO2:        96.0,
			Temperature: 36.8,
			SystolicBP:  125,
			DiastolicBP: 82,
			Steps:       30,
			StressLevel: 4,
			Status:      models.StatusWarning,
			Alert:       strPtr("High heart rate: 130 bpm"),
		},
		{
			Timestamp:   models.NewTimestamp(base.Add(10 * time.Second)),
			HeartRate:   70,
			SpO2:        92.5,
			Temperature: 38.0,
			SystolicBP:  145,
			DiastolicBP: 95,
			Steps:       0,
			StressLevel: 9,
			Status:      models.StatusWarning,
			Alert:       strPtr("Low oxygen saturation: 92.5%"),
		},
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	if s.TotalReadings != 0 {
		t.Errorf("TotalReadings = %d, want 0", s.TotalReadings)
	}
	if s.Anomalies.Total() != 0 {
		t.Errorf("anomalies total = %d, want 0", s.Anomalies.Total())
	}
}

func TestCompute(t *testing.T) {
	s := Compute(testSeries())

	if s.TotalReadings != 3 {
		t.Errorf("TotalReadings = %d, want 3", s.TotalReadings)
	}
	if !strings.Contains(s.TimeSpan, "2025-06-01T12:00:00") {
		t.Errorf("TimeSpan = %q, want it to start at 2025-06-01T12:00:00", s.TimeSpan)
	}

	if s.HeartRateMin != 70 || s.HeartRateMax != 130 {
		t.Errorf("heart rate range = %d-%d, want 70-130", s.HeartRateMin, s.HeartRateMax)
	}
	if got := s.HeartRateAvg; got != 93.3 {
		t.Errorf("HeartRateAvg = %v, want 93.3", got)
	}
	if s.SpO2Min != 92.5 || s.SpO2Max != 97.0 {
		t.Errorf("spo2 range = %v-%v, want 92.5-97.0", s.SpO2Min, s.SpO2Max)
	}
	if s.TotalSteps != 80 {
		t.Errorf("TotalSteps = %d, want 80", s.TotalSteps)
	}
	if s.StressMax != 9 {
		t.Errorf("StressMax = %d, want 9", s.StressMax)
	}

	want := AnomalyCounts{
		HighHeartRate: 1, // 130
		LowOxygen:     1, // 92.5
		HighTemp:      1, // 38.0
		HighBP:        1, // 145
		HighStress:    1, // 9
	}
	if s.Anomalies != want {
		t.Errorf("Anomalies = %+v, want %+v", s.Anomalies, want)
	}
	if s.Anomalies.Total() != 5 {
		t.Errorf("anomalies total = %d, want 5", s.Anomalies.Total())
	}
}

func TestBuildPrompt(t *testing.T) {
	series := testSeries()
	stats := Compute(series)
	prompt := BuildPrompt(stats, series)

	for _, want := range []string{
		"MONITORING PERIOD:",
		"- Total readings: 3",
		"VITAL SIGNS SUMMARY:",
		"DETECTED ANOMALIES (5 total):",
		"- High heart rate events: 1",
		"EXAMPLE ANOMALIES:",
		"High heart rate: 130 bpm at 2025-06-01T12:00:05",
		"1. Overall health assessment",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptNoAnomalies(t *testing.T) {
	series := testSeries()[:1]
	stats := Compute(series)
	prompt := BuildPrompt(stats, series)

	if strings.Contains(prompt, "EXAMPLE ANOMALIES:") {
		t.Error("prompt should omit the example section when there are no anomalies")
	}
	if !strings.Contains(prompt, "DETECTED ANOMALIES (0 total):") {
		t.Error("prompt should report zero anomalies")
	}
}
