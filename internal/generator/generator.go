// Package generator produces simulated wearable vital-sign readings, with
// optional labeled anomaly injection. All sampling draws from an explicitly
// owned random source so generation is deterministic under a fixed seed.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// autoAnomalyProb is the per-reading probability that the auto directive
// injects an anomaly.
const autoAnomalyProb = 0.15

// Directive controls whether, and which, anomaly a reading encodes.
type Directive struct {
	auto bool
	kind models.AnomalyKind
}

// None forces a normal reading regardless of sampling.
func None() Directive { return Directive{} }

// Auto injects a uniformly chosen anomaly with probability 0.15.
func Auto() Directive { return Directive{auto: true} }

// Force always injects the given anomaly kind.
func Force(kind models.AnomalyKind) Directive { return Directive{kind: kind} }

// Synthesizer produces one reading per call. It is a pure function of its
// random source and parameters; safe for single-goroutine use per source.
type Synthesizer struct {
	rng *rand.Rand
}

// New creates a Synthesizer drawing from rng. A nil rng gets a fresh
// time-seeded source.
func New(rng *rand.Rand) *Synthesizer {
	if rng == nil {
		now := time.Now()
		rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix())))
	}
	return &Synthesizer{rng: rng}
}

// NewSeeded creates a Synthesizer with a deterministic PCG source.
func NewSeeded(seed uint64) *Synthesizer {
	return New(rand.New(rand.NewPCG(seed, seed)))
}

// Reading synthesizes one measurement for the given instant. The timestamp is
// accepted verbatim; no validation is performed on it.
func (s *Synthesizer) Reading(ts time.Time, d Directive) models.Reading {
	r := models.Reading{
		Timestamp:   models.NewTimestamp(ts),
		HeartRate:   s.intBetween(60, 100),
		SpO2:        s.realBetween(95.0, 100.0),
		Temperature: s.realBetween(36.1, 37.2),
		SystolicBP:  s.intBetween(110, 130),
		DiastolicBP: s.intBetween(70, 85),
		Steps:       s.intBetween(0, 120),
		StressLevel: s.intBetween(1, 10),
		Status:      models.StatusNormal,
	}

	kind, inject := s.resolve(d)
	if inject {
		s.applyAnomaly(kind, &r)
	}
	return r
}

// resolve decides which anomaly, if any, the directive injects.
func (s *Synthesizer) resolve(d Directive) (models.AnomalyKind, bool) {
	if d.kind != "" {
		return d.kind, true
	}
	if !d.auto {
		return "", false
	}
	if s.rng.Float64() >= autoAnomalyProb {
		return "", false
	}
	kinds := models.AnomalyKinds()
	return kinds[s.rng.IntN(len(kinds))], true
}

// applyAnomaly overrides exactly the fields the kind governs, using sampling
// ranges disjoint from the baseline ranges, and labels the reading. The
// switch is exhaustive over models.AnomalyKinds.
func (s *Synthesizer) applyAnomaly(kind models.AnomalyKind, r *models.Reading) {
	var msg string
	switch kind {
	case models.AnomalyHighHeartRate:
		r.HeartRate = s.intBetween(101, 140)
		msg = fmt.Sprintf("High heart rate: %d bpm", r.HeartRate)
	case models.AnomalyLowHeartRate:
		r.HeartRate = s.intBetween(40, 59)
		msg = fmt.Sprintf("Low heart rate: %d bpm", r.HeartRate)
	case models.AnomalyLowOxygen:
		r.SpO2 = s.realBetween(85.0, 94.9)
		msg = fmt.Sprintf("Low oxygen saturation: %.1f%%", r.SpO2)
	case models.AnomalyHighTemp:
		r.Temperature = s.realBetween(37.3, 40.0)
		msg = fmt.Sprintf("Elevated temperature: %.1f°C", r.Temperature)
	case models.AnomalyLowTemp:
		r.Temperature = s.realBetween(34.0, 36.0)
		msg = fmt.Sprintf("Low temperature: %.1f°C", r.Temperature)
	case models.AnomalyHighBP:
		r.SystolicBP = s.intBetween(131, 180)
		r.DiastolicBP = s.intBetween(86, 110)
		msg = fmt.Sprintf("High blood pressure: %d/%d mmHg", r.SystolicBP, r.DiastolicBP)
	case models.AnomalyLowBP:
		r.SystolicBP = s.intBetween(70, 109)
		r.DiastolicBP = s.intBetween(40, 69)
		msg = fmt.Sprintf("Low blood pressure: %d/%d mmHg", r.SystolicBP, r.DiastolicBP)
	case models.AnomalyHighStress:
		r.StressLevel = s.intBetween(8, 10)
		msg = fmt.Sprintf("High stress level: %d/10", r.StressLevel)
	default:
		// Unreachable for kinds produced by resolve; leave the reading normal.
		return
	}
	r.Status = models.StatusWarning
	r.Alert = &msg
}

// intBetween returns a uniform integer in [lo, hi].
func (s *Synthesizer) intBetween(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

// realBetween returns a uniform real in [lo, hi] rounded to one decimal.
func (s *Synthesizer) realBetween(lo, hi float64) float64 {
	return math.Round((lo+s.rng.Float64()*(hi-lo))*10) / 10
}
