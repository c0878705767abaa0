package feed

import (
	"context"
	"sync"
	"time"

	"github.com/HealthForge/vitalsim/internal/event"
	"github.com/HealthForge/vitalsim/internal/generator"
	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Event topics published on the bus.
const (
	TopicReading = "feed.reading"
	TopicAlert   = "feed.alert"
)

// ReadingEvent is the bus payload for feed topics.
type ReadingEvent struct {
	PatientID string
	Reading   *models.Reading
}

var (
	readingsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalsim_feed_readings_total",
			Help: "Total live readings generated, by patient.",
		},
		[]string{"patient_id"},
	)

	alertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalsim_feed_alerts_total",
			Help: "Total live readings that carried an alert, by patient.",
		},
		[]string{"patient_id"},
	)
)

// Config holds live feed settings.
type Config struct {
	Interval time.Duration
	Persist  bool
}

// Feed generates one live reading per registered patient on a fixed interval
// and publishes each on the event bus. Readings are optionally persisted and
// mirrored to Kafka.
type Feed struct {
	synth    *generator.Synthesizer
	patients *history.HistoryStore
	bus      *event.Bus
	mirror   *Mirror
	cfg      Config
	logger   *zap.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a feed. mirror may be nil when no Kafka brokers are configured.
func New(synth *generator.Synthesizer, patients *history.HistoryStore, bus *event.Bus, mirror *Mirror, cfg Config, logger *zap.Logger) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Feed{
		synth:    synth,
		patients: patients,
		bus:      bus,
		mirror:   mirror,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start begins the generation loop. Returns immediately; use Stop to halt.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.cfg.Interval)
		defer ticker.Stop()

		// Run immediately on start, then on each tick.
		f.tick()

		for {
			select {
			case <-f.ctx.Done():
				return
			case <-ticker.C:
				f.tick()
			}
		}
	}()

	f.logger.Info("live feed started", zap.Duration("interval", f.cfg.Interval))
}

// Stop signals the feed to stop and waits for the loop to exit.
func (f *Feed) Stop() {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

// Running reports whether the generation loop is active.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctx != nil && f.ctx.Err() == nil
}

// tick generates one reading per registered patient.
func (f *Feed) tick() {
	ctx, cancel := context.WithTimeout(f.ctx, f.cfg.Interval)
	defer cancel()

	patients, err := f.patients.ListPatients(ctx)
	if err != nil {
		f.logger.Warn("feed: failed to load patients", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range patients {
		select {
		case <-ctx.Done():
			return
		default:
		}
		f.emit(ctx, patients[i].ID, now)
	}
}

// emit generates, persists, publishes, and mirrors one reading.
func (f *Feed) emit(ctx context.Context, patientID string, at time.Time) {
	reading := f.synth.Reading(at, generator.Auto())
	readingsGenerated.WithLabelValues(patientID).Inc()

	if f.cfg.Persist {
		if err := f.patients.InsertLiveReading(ctx, patientID, reading); err != nil {
			f.logger.Warn("feed: failed to persist reading",
				zap.String("patient_id", patientID), zap.Error(err))
		}
	}

	ev := &ReadingEvent{PatientID: patientID, Reading: &reading}
	f.bus.PublishAsync(ctx, event.Event{
		Topic:     TopicReading,
		Source:    "feed",
		Timestamp: at,
		Payload:   ev,
	})

	if reading.Alert != nil {
		alertsGenerated.WithLabelValues(patientID).Inc()
		f.bus.PublishAsync(ctx, event.Event{
			Topic:     TopicAlert,
			Source:    "feed",
			Timestamp: at,
			Payload:   ev,
		})
		f.logger.Info("feed alert",
			zap.String("patient_id", patientID),
			zap.String("alert", *reading.Alert))
	}

	if f.mirror != nil {
		if err := f.mirror.Publish(ctx, patientID, reading); err != nil {
			f.logger.Warn("feed: kafka mirror failed",
				zap.String("patient_id", patientID), zap.Error(err))
		}
	}
}
