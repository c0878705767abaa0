package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/HealthForge/vitalsim/internal/history"
)

func TestBuildContext(t *testing.T) {
	series := testSeries()
	ctx := BuildContext(Compute(series), series, nil)

	for _, want := range []string{
		"You are a medical assistant analyzing patient health data.",
		"Total Readings: 3",
		"VITAL SIGNS:",
		"Heart Rate: Average 93.3 bpm (range: 70-130)",
		"DETECTED ANOMALIES (5 total):",
		"Answer questions about this patient's data professionally and concisely.",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q", want)
		}
	}
	if strings.Contains(ctx, "MEDICAL DOCUMENTS") {
		t.Error("context without documents should not mention them")
	}
}

func TestBuildContext_Documents(t *testing.T) {
	series := testSeries()
	docs := []history.Document{
		{
			Type:       "lab_result",
			Text:       "Hemoglobin within normal limits.",
			UploadedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local),
		},
		{
			Type:       "prescription",
			Text:       strings.Repeat("x", 600),
			UploadedAt: time.Date(2025, 6, 3, 9, 0, 0, 0, time.Local),
		},
	}
	ctx := BuildContext(Compute(series), series, docs)

	if !strings.Contains(ctx, "MEDICAL DOCUMENTS (2):") {
		t.Error("context missing document block")
	}
	if !strings.Contains(ctx, "- lab_result (2025-06-02)") {
		t.Error("context missing document entry")
	}
	if !strings.Contains(ctx, "Content preview: Hemoglobin within normal limits.") {
		t.Error("context missing short document text")
	}
	if !strings.Contains(ctx, strings.Repeat("x", 500)+"...") {
		t.Error("long document text should be truncated with ellipsis")
	}
	if strings.Contains(ctx, strings.Repeat("x", 501)) {
		t.Error("document excerpt exceeds the cap")
	}
}

func TestBuildQuestionPrompt_NoHistory(t *testing.T) {
	got := BuildQuestionPrompt("CONTEXT", "Is the heart rate concerning?", nil)

	if !strings.HasPrefix(got, "CONTEXT\n\nDoctor: Is the heart rate concerning?") {
		t.Errorf("unexpected prompt prefix: %q", got[:min(len(got), 80)])
	}
	if !strings.HasSuffix(got, "\nAI:") {
		t.Errorf("prompt should end with AI turn marker, got %q", got)
	}
	if strings.Contains(got, "Recent conversation:") {
		t.Error("prompt without history should not replay a conversation")
	}
}

func TestBuildQuestionPrompt_HistoryWindow(t *testing.T) {
	exchanges := []Exchange{
		{Question: "first", Answer: "a1"},
		{Question: "second", Answer: "a2"},
		{Question: "third", Answer: "a3"},
	}
	got := BuildQuestionPrompt("CONTEXT", "fourth", exchanges)

	if !strings.Contains(got, "Recent conversation:") {
		t.Error("prompt missing conversation block")
	}
	if strings.Contains(got, "Doctor: first") {
		t.Error("only the last two exchanges should be replayed")
	}
	for _, want := range []string{"Doctor: second\nAI: a2", "Doctor: third\nAI: a3", "Doctor: fourth\nAI:"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
