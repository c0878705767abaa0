package chat

import (
	"fmt"
	"strings"

	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/pkg/models"
)

// Exchange is one prior question/answer pair in a consultation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// historyWindow limits how many prior exchanges are replayed into the
// prompt so the context stays small.
const historyWindow = 2

// docExcerptLen caps how much of each document's text is quoted in the
// consultation context.
const docExcerptLen = 500

// BuildContext renders the patient data context a consultation question is
// answered against: monitoring period, vital sign summary, anomaly counts,
// and excerpts from any registered medical documents.
func BuildContext(s Stats, series models.Series, docs []history.Document) string {
	var b strings.Builder
	b.WriteString("You are a medical assistant analyzing patient health data.\n\n")
	fmt.Fprintf(&b, "Monitoring Period: %s\nTotal Readings: %d\n\n", s.TimeSpan, s.TotalReadings)
	b.WriteString("VITAL SIGNS:\n")
	fmt.Fprintf(&b, "Heart Rate: Average %.1f bpm (range: %d-%d)\n", s.HeartRateAvg, s.HeartRateMin, s.HeartRateMax)
	fmt.Fprintf(&b, "Blood Oxygen: Average %.1f%% (range: %.1f-%.1f%%)\n", s.SpO2Avg, s.SpO2Min, s.SpO2Max)
	fmt.Fprintf(&b, "Temperature: Average %.1f°C (range: %.1f-%.1f°C)\n", s.TempAvg, s.TempMin, s.TempMax)
	fmt.Fprintf(&b, "Blood Pressure: Average %.1f/%.1f mmHg (systolic %d-%d, diastolic %d-%d)\n",
		s.SystolicAvg, s.DiastolicAvg, s.SystolicMin, s.SystolicMax, s.DiastolicMin, s.DiastolicMax)
	fmt.Fprintf(&b, "Stress Level: Average %.1f/10 (max: %d/10)\n", s.StressAvg, s.StressMax)
	fmt.Fprintf(&b, "Activity: Total %d steps\n\n", s.TotalSteps)
	fmt.Fprintf(&b, "DETECTED ANOMALIES (%d total):\n", s.Anomalies.Total())
	fmt.Fprintf(&b, "- High heart rate events: %d\n", s.Anomalies.HighHeartRate)
	fmt.Fprintf(&b, "- Low heart rate events: %d\n", s.Anomalies.LowHeartRate)
	fmt.Fprintf(&b, "- Low oxygen saturation: %d\n", s.Anomalies.LowOxygen)
	fmt.Fprintf(&b, "- High temperature events: %d\n", s.Anomalies.HighTemp)
	fmt.Fprintf(&b, "- Low temperature events: %d\n", s.Anomalies.LowTemp)
	fmt.Fprintf(&b, "- High blood pressure: %d\n", s.Anomalies.HighBP)
	fmt.Fprintf(&b, "- Low blood pressure: %d\n", s.Anomalies.LowBP)
	fmt.Fprintf(&b, "- High stress levels: %d\n", s.Anomalies.HighStress)

	if len(docs) > 0 {
		fmt.Fprintf(&b, "\nMEDICAL DOCUMENTS (%d):\n", len(docs))
		for _, d := range docs {
			fmt.Fprintf(&b, "- %s (%s)\n", d.Type, d.UploadedAt.Format("2006-01-02"))
			if d.Text != "" {
				excerpt := d.Text
				if len(excerpt) > docExcerptLen {
					excerpt = excerpt[:docExcerptLen] + "..."
				}
				fmt.Fprintf(&b, "  Content preview: %s\n", excerpt)
			}
		}
	}

	b.WriteString("\nAnswer questions about this patient's data professionally and concisely.")
	return b.String()
}

// BuildQuestionPrompt appends the recent conversation and the new question
// to the data context, leaving the model to continue after "AI:".
func BuildQuestionPrompt(context, question string, exchanges []Exchange) string {
	if len(exchanges) > historyWindow {
		exchanges = exchanges[len(exchanges)-historyWindow:]
	}

	var b strings.Builder
	b.WriteString(context)
	if len(exchanges) > 0 {
		b.WriteString("\n\nRecent conversation:\n")
		for _, e := range exchanges {
			fmt.Fprintf(&b, "Doctor: %s\nAI: %s\n", e.Question, e.Answer)
		}
		fmt.Fprintf(&b, "Doctor: %s\nAI:", question)
		return b.String()
	}
	fmt.Fprintf(&b, "\n\nDoctor: %s\nAI:", question)
	return b.String()
}
