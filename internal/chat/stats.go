package chat

import (
	"fmt"
	"math"
	"strings"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// AnomalyCounts tallies readings outside normal vital ranges.
type AnomalyCounts struct {
	HighHeartRate int `json:"high_heart_rate"`
	LowHeartRate  int `json:"low_heart_rate"`
	LowOxygen     int `json:"low_oxygen"`
	HighTemp      int `json:"high_temp"`
	LowTemp       int `json:"low_temp"`
	HighBP        int `json:"high_bp"`
	LowBP         int `json:"low_bp"`
	HighStress    int `json:"high_stress"`
}

// Total returns the sum of all anomaly counts.
func (a AnomalyCounts) Total() int {
	return a.HighHeartRate + a.LowHeartRate + a.LowOxygen +
		a.HighTemp + a.LowTemp + a.HighBP + a.LowBP + a.HighStress
}

// Stats aggregates a series for analysis.
type Stats struct {
	TotalReadings int     `json:"total_readings"`
	TimeSpan      string  `json:"time_span"`
	HeartRateAvg  float64 `json:"heart_rate_avg"`
	HeartRateMin  int     `json:"heart_rate_min"`
	HeartRateMax  int     `json:"heart_rate_max"`
	HeartRateStd  float64 `json:"heart_rate_std"`
	SpO2Avg       float64 `json:"spo2_avg"`
	SpO2Min       float64 `json:"spo2_min"`
	SpO2Max       float64 `json:"spo2_max"`
	TempAvg       float64 `json:"temperature_avg"`
	TempMin       float64 `json:"temperature_min"`
	TempMax       float64 `json:"temperature_max"`
	SystolicAvg   float64 `json:"systolic_avg"`
	DiastolicAvg  float64 `json:"diastolic_avg"`
	SystolicMin   int     `json:"systolic_min"`
	SystolicMax   int     `json:"systolic_max"`
	DiastolicMin  int     `json:"diastolic_min"`
	DiastolicMax  int     `json:"diastolic_max"`
	StressAvg     float64 `json:"stress_avg"`
	StressMax     int     `json:"stress_max"`
	TotalSteps    int     `json:"total_steps"`

	Anomalies AnomalyCounts `json:"anomalies"`
}

// Compute aggregates the series into Stats. An empty series yields zero values.
func Compute(series models.Series) Stats {
	var s Stats
	s.TotalReadings = len(series)
	if len(series) == 0 {
		return s
	}

	s.TimeSpan = fmt.Sprintf("%s to %s",
		series[0].Timestamp.String(), series[len(series)-1].Timestamp.String())

	s.HeartRateMin = series[0].HeartRate
	s.SpO2Min = series[0].SpO2
	s.TempMin = series[0].Temperature
	s.SystolicMin = series[0].SystolicBP
	s.DiastolicMin = series[0].DiastolicBP

	var hrSum, sysSum, diaSum, stressSum int
	var spo2Sum, tempSum float64
	for _, r := range series {
		hrSum += r.HeartRate
		spo2Sum += r.SpO2
		tempSum += r.Temperature
		sysSum += r.SystolicBP
		diaSum += r.DiastolicBP
		stressSum += r.StressLevel
		s.TotalSteps += r.Steps

		s.HeartRateMin = min(s.HeartRateMin, r.HeartRate)
		s.HeartRateMax = max(s.HeartRateMax, r.HeartRate)
		s.SpO2Min = math.Min(s.SpO2Min, r.SpO2)
		s.SpO2Max = math.Max(s.SpO2Max, r.SpO2)
		s.TempMin = math.Min(s.TempMin, r.Temperature)
		s.TempMax = math.Max(s.TempMax, r.Temperature)
		s.SystolicMin = min(s.SystolicMin, r.SystolicBP)
		s.SystolicMax = max(s.SystolicMax, r.SystolicBP)
		s.DiastolicMin = min(s.DiastolicMin, r.DiastolicBP)
		s.DiastolicMax = max(s.DiastolicMax, r.DiastolicBP)
		s.StressMax = max(s.StressMax, r.StressLevel)

		if r.HeartRate > 120 {
			s.Anomalies.HighHeartRate++
		}
		if r.HeartRate < 60 {
			s.Anomalies.LowHeartRate++
		}
		if r.SpO2 < 95 {
			s.Anomalies.LowOxygen++
		}
		if r.Temperature > 37.2 {
			s.Anomalies.HighTemp++
		}
		if r.Temperature < 36.1 {
			s.Anomalies.LowTemp++
		}
		if r.SystolicBP > 130 {
			s.Anomalies.HighBP++
		}
		if r.SystolicBP < 110 {
			s.Anomalies.LowBP++
		}
		if r.StressLevel > 6 {
			s.Anomalies.HighStress++
		}
	}

	n := float64(len(series))
	s.HeartRateAvg = round1(float64(hrSum) / n)
	s.SpO2Avg = round1(spo2Sum / n)
	s.TempAvg = round1(tempSum / n)
	s.SystolicAvg = round1(float64(sysSum) / n)
	s.DiastolicAvg = round1(float64(diaSum) / n)
	s.StressAvg = round1(float64(stressSum) / n)

	var variance float64
	for _, r := range series {
		d := float64(r.HeartRate) - float64(hrSum)/n
		variance += d * d
	}
	if len(series) > 1 {
		s.HeartRateStd = round1(math.Sqrt(variance / (n - 1)))
	}

	return s
}

// BuildPrompt renders the analysis prompt from stats and up to three example
// anomalous readings.
func BuildPrompt(s Stats, series models.Series) string {
	var samples []string
	for _, r := range series {
		if len(samples) >= 3 {
			break
		}
		switch {
		case r.HeartRate > 120:
			samples = append(samples, fmt.Sprintf("High heart rate: %d bpm at %s", r.HeartRate, r.Timestamp.String()))
		case r.SpO2 < 95:
			samples = append(samples, fmt.Sprintf("Low oxygen: %.1f%% at %s", r.SpO2, r.Timestamp.String()))
		case r.Temperature > 37.2:
			samples = append(samples, fmt.Sprintf("High temperature: %.1f°C at %s", r.Temperature, r.Timestamp.String()))
		}
	}

	var b strings.Builder
	b.WriteString("You are a health data analyst. Analyze the following smart watch health monitoring data and provide insights:\n\n")
	fmt.Fprintf(&b, "MONITORING PERIOD:\n- Total readings: %d\n- Time span: %s\n\n", s.TotalReadings, s.TimeSpan)
	b.WriteString("VITAL SIGNS SUMMARY:\n")
	fmt.Fprintf(&b, "Heart Rate:\n- Average: %.1f bpm\n- Range: %d-%d bpm\n- Standard deviation: %.1f\n\n",
		s.HeartRateAvg, s.HeartRateMin, s.HeartRateMax, s.HeartRateStd)
	fmt.Fprintf(&b, "Blood Oxygen (SpO2):\n- Average: %.1f%%\n- Range: %.1f-%.1f%%\n\n",
		s.SpO2Avg, s.SpO2Min, s.SpO2Max)
	fmt.Fprintf(&b, "Body Temperature:\n- Average: %.1f°C\n- Range: %.1f-%.1f°C\n\n",
		s.TempAvg, s.TempMin, s.TempMax)
	fmt.Fprintf(&b, "Blood Pressure:\n- Average: %.1f/%.1f mmHg\n- Systolic range: %d-%d mmHg\n- Diastolic range: %d-%d mmHg\n\n",
		s.SystolicAvg, s.DiastolicAvg, s.SystolicMin, s.SystolicMax, s.DiastolicMin, s.DiastolicMax)
	fmt.Fprintf(&b, "Stress Level:\n- Average: %.1f/10\n- Maximum: %d/10\n\n", s.StressAvg, s.StressMax)
	fmt.Fprintf(&b, "Activity:\n- Total steps: %d\n\n", s.TotalSteps)
	fmt.Fprintf(&b, "DETECTED ANOMALIES (%d total):\n", s.Anomalies.Total())
	fmt.Fprintf(&b, "- High heart rate events: %d\n", s.Anomalies.HighHeartRate)
	fmt.Fprintf(&b, "- Low heart rate events: %d\n", s.Anomalies.LowHeartRate)
	fmt.Fprintf(&b, "- Low oxygen saturation: %d\n", s.Anomalies.LowOxygen)
	fmt.Fprintf(&b, "- High temperature events: %d\n", s.Anomalies.HighTemp)
	fmt.Fprintf(&b, "- Low temperature events: %d\n", s.Anomalies.LowTemp)
	fmt.Fprintf(&b, "- High blood pressure: %d\n", s.Anomalies.HighBP)
	fmt.Fprintf(&b, "- Low blood pressure: %d\n", s.Anomalies.LowBP)
	fmt.Fprintf(&b, "- High stress levels: %d\n\n", s.Anomalies.HighStress)
	if len(samples) > 0 {
		b.WriteString("EXAMPLE ANOMALIES:\n")
		b.WriteString(strings.Join(samples, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("Please provide:\n")
	b.WriteString("1. Overall health assessment\n")
	b.WriteString("2. Key concerns or patterns\n")
	b.WriteString("3. Recommendations for the user\n")
	b.WriteString("4. Any correlations you notice between different metrics\n")

	return b.String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
