package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HealthForge/vitalsim/pkg/models"
	"github.com/segmentio/kafka-go"
)

// Mirror publishes live readings to a Kafka topic, keyed by patient so each
// patient's readings stay ordered within a partition.
type Mirror struct {
	writer *kafka.Writer
}

// NewMirror creates a Kafka mirror for the given brokers and topic.
func NewMirror(brokers []string, topic string) *Mirror {
	return &Mirror{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// mirrorRecord is the wire shape written to Kafka.
type mirrorRecord struct {
	PatientID string         `json:"patient_id"`
	Reading   models.Reading `json:"reading"`
}

// Publish writes one reading to the topic.
func (m *Mirror) Publish(ctx context.Context, patientID string, r models.Reading) error {
	value, err := json.Marshal(mirrorRecord{PatientID: patientID, Reading: r})
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	if err := m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(patientID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (m *Mirror) Close() error {
	return m.writer.Close()
}
