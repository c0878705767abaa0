package generator

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

func testSynth(seed uint64) *Synthesizer {
	return New(rand.New(rand.NewPCG(seed, seed+1)))
}

func TestReading_NoneDirective(t *testing.T) {
	s := testSynth(1)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

	for i := 0; i < 1000; i++ {
		r := s.Reading(ts, None())
		if r.Status != models.StatusNormal {
			t.Fatalf("Status = %q, want %q", r.Status, models.StatusNormal)
		}
		if r.Alert != nil {
			t.Fatalf("Alert = %q, want nil", *r.Alert)
		}
	}
}

func TestReading_BaselineRanges(t *testing.T) {
	s := testSynth(2)
	ts := time.Now()

	for i := 0; i < 2000; i++ {
		r := s.Reading(ts, None())
		if r.HeartRate < 60 || r.HeartRate > 100 {
			t.Errorf("HeartRate = %d, want [60,100]", r.HeartRate)
		}
		if r.SpO2 < 95.0 || r.SpO2 > 100.0 {
			t.Errorf("SpO2 = %v, want [95.0,100.0]", r.SpO2)
		}
		if r.Temperature < 36.1 || r.Temperature > 37.2 {
			t.Errorf("Temperature = %v, want [36.1,37.2]", r.Temperature)
		}
		if r.SystolicBP < 110 || r.SystolicBP > 130 {
			t.Errorf("SystolicBP = %d, want [110,130]", r.SystolicBP)
		}
		if r.DiastolicBP < 70 || r.DiastolicBP > 85 {
			t.Errorf("DiastolicBP = %d, want [70,85]", r.DiastolicBP)
		}
		if r.Steps < 0 || r.Steps > 120 {
			t.Errorf("Steps = %d, want [0,120]", r.Steps)
		}
		if r.StressLevel < 1 || r.StressLevel > 10 {
			t.Errorf("StressLevel = %d, want [1,10]", r.StressLevel)
		}
	}
}

func TestReading_RoundedToOneDecimal(t *testing.T) {
	s := testSynth(3)
	for i := 0; i < 500; i++ {
		r := s.Reading(time.Now(), None())
		for _, v := range []float64{r.SpO2, r.Temperature} {
			if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
				t.Fatalf("value %v not rounded to one decimal", v)
			}
		}
	}
}

func TestReading_ForcedAnomalies(t *testing.T) {
	tests := []struct {
		kind      models.AnomalyKind
		substring string
		inRange   func(r models.Reading) bool
	}{
		{
			kind:      models.AnomalyHighHeartRate,
			substring: "High heart rate",
			inRange:   func(r models.Reading) bool { return r.HeartRate >= 101 && r.HeartRate <= 140 },
		},
		{
			kind:      models.AnomalyLowHeartRate,
			substring: "Low heart rate",
			inRange:   func(r models.Reading) bool { return r.HeartRate >= 40 && r.HeartRate <= 59 },
		},
		{
			kind:      models.AnomalyLowOxygen,
			substring: "Low oxygen saturation",
			inRange:   func(r models.Reading) bool { return r.SpO2 >= 85.0 && r.SpO2 <= 94.9 },
		},
		{
			kind:      models.AnomalyHighTemp,
			substring: "Elevated temperature",
			inRange:   func(r models.Reading) bool { return r.Temperature >= 37.3 && r.Temperature <= 40.0 },
		},
		{
			kind:      models.AnomalyLowTemp,
			substring: "Low temperature",
			inRange:   func(r models.Reading) bool { return r.Temperature >= 34.0 && r.Temperature <= 36.0 },
		},
		{
			kind:      models.AnomalyHighBP,
			substring: "High blood pressure",
			inRange: func(r models.Reading) bool {
				return r.SystolicBP >= 131 && r.SystolicBP <= 180 && r.DiastolicBP >= 86 && r.DiastolicBP <= 110
			},
		},
		{
			kind:      models.AnomalyLowBP,
			substring: "Low blood pressure",
			inRange: func(r models.Reading) bool {
				return r.SystolicBP >= 70 && r.SystolicBP <= 109 && r.DiastolicBP >= 40 && r.DiastolicBP <= 69
			},
		},
		{
			kind:      models.AnomalyHighStress,
			substring: "High stress level",
			inRange:   func(r models.Reading) bool { return r.StressLevel >= 8 && r.StressLevel <= 10 },
		},
	}

	s := testSynth(4)
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			for i := 0; i < 500; i++ {
				r := s.Reading(time.Now(), Force(tt.kind))
				if r.Status != models.StatusWarning {
					t.Fatalf("Status = %q, want %q", r.Status, models.StatusWarning)
				}
				if r.Alert == nil {
					t.Fatal("Alert = nil, want non-nil")
				}
				if !strings.Contains(*r.Alert, tt.substring) {
					t.Fatalf("Alert = %q, want substring %q", *r.Alert, tt.substring)
				}
				if !tt.inRange(r) {
					t.Fatalf("governed field out of range for %s: %+v", tt.kind, r)
				}
			}
		})
	}
}

func TestReading_AutoConvergesTo15Percent(t *testing.T) {
	s := testSynth(5)
	const n = 100000

	warnings := 0
	byKind := make(map[string]int)
	for i := 0; i < n; i++ {
		r := s.Reading(time.Now(), Auto())
		if r.Status == models.StatusWarning {
			warnings++
			// Alert templates start with a kind-specific prefix; bucket by it.
			msg := *r.Alert
			byKind[msg[:strings.Index(msg, ":")]]++
		}
	}

	rate := float64(warnings) / n
	if rate < 0.13 || rate > 0.17 {
		t.Errorf("warning rate = %.4f, want 0.15 +/- 0.02", rate)
	}

	if len(byKind) != 8 {
		t.Fatalf("observed %d distinct alert prefixes, want 8", len(byKind))
	}
	for prefix, count := range byKind {
		share := float64(count) / float64(warnings)
		if share < 0.09 || share > 0.16 {
			t.Errorf("kind %q share = %.4f, want ~0.125", prefix, share)
		}
	}
}

func TestReading_DeterministicUnderFixedSeed(t *testing.T) {
	ts := time.Date(2025, 6, 1, 8, 30, 0, 0, time.Local)

	a := testSynth(42).Reading(ts, Auto())
	b := testSynth(42).Reading(ts, Auto())
	if a.HeartRate != b.HeartRate || a.SpO2 != b.SpO2 || a.Status != b.Status {
		t.Errorf("same seed produced different readings: %+v vs %+v", a, b)
	}
}

func TestReading_TimestampTruncatedToSecond(t *testing.T) {
	s := testSynth(6)
	ts := time.Date(2025, 6, 1, 8, 30, 15, 987654321, time.Local)
	r := s.Reading(ts, None())
	if got := r.Timestamp.Time(); got.Nanosecond() != 0 {
		t.Errorf("Timestamp = %v, want second resolution", got)
	}
}
