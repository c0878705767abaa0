package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/HealthForge/vitalsim/internal/event"
	"github.com/HealthForge/vitalsim/internal/generator"
	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/internal/store"
	"go.uber.org/zap/zaptest"
)

func testPatients(t *testing.T) *history.HistoryStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), "history", history.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return history.NewHistoryStore(db.DB())
}

func TestFeedPublishesAndPersists(t *testing.T) {
	patients := testPatients(t)
	if err := patients.InsertPatient(context.Background(), &history.Patient{
		ID:        "patient-1",
		Name:      "Test Patient",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("insert patient: %v", err)
	}

	bus := event.NewBus(zaptest.NewLogger(t))

	var mu sync.Mutex
	var got []*ReadingEvent
	bus.Subscribe(TopicReading, func(_ context.Context, ev event.Event) {
		re, ok := ev.Payload.(*ReadingEvent)
		if !ok {
			t.Errorf("payload type = %T, want *ReadingEvent", ev.Payload)
			return
		}
		mu.Lock()
		got = append(got, re)
		mu.Unlock()
	})

	f := New(generator.New(nil), patients, bus, nil,
		Config{Interval: 20 * time.Millisecond, Persist: true}, zaptest.NewLogger(t))

	f.Start(context.Background())
	if !f.Running() {
		t.Error("Running() = false after Start")
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for readings, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	f.Stop()
	if f.Running() {
		t.Error("Running() = true after Stop")
	}

	mu.Lock()
	first := got[0]
	mu.Unlock()

	if first.PatientID != "patient-1" {
		t.Errorf("PatientID = %q, want patient-1", first.PatientID)
	}
	if first.Reading == nil {
		t.Fatal("Reading is nil")
	}

	latest, err := patients.LatestLiveReading(context.Background(), "patient-1")
	if err != nil {
		t.Fatalf("LatestLiveReading: %v", err)
	}
	if latest == nil {
		t.Error("no live reading persisted")
	}
}

func TestFeedNoPatients(t *testing.T) {
	patients := testPatients(t)
	bus := event.NewBus(zaptest.NewLogger(t))

	f := New(generator.New(nil), patients, bus, nil,
		Config{Interval: 10 * time.Millisecond, Persist: true}, zaptest.NewLogger(t))

	// With no registered patients the loop should idle without error.
	f.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	f.Stop()
}

func TestFeedStopBeforeTick(t *testing.T) {
	patients := testPatients(t)
	bus := event.NewBus(zaptest.NewLogger(t))

	f := New(generator.New(nil), patients, bus, nil,
		Config{Interval: time.Hour, Persist: false}, zaptest.NewLogger(t))

	f.Start(context.Background())
	f.Stop()

	if f.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestFeedDefaultInterval(t *testing.T) {
	f := New(generator.New(nil), nil, nil, nil, Config{}, zaptest.NewLogger(t))
	if f.cfg.Interval != 5*time.Second {
		t.Errorf("default interval = %v, want 5s", f.cfg.Interval)
	}
}
