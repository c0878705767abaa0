package ws

import (
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageFeedReading MessageType = "feed.reading"
	MessageFeedAlert   MessageType = "feed.alert"
	MessageFeedError   MessageType = "feed.error"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	PatientID string      `json:"patient_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// FeedReadingData is the payload for feed.reading messages.
type FeedReadingData struct {
	Reading *models.Reading `json:"reading"`
}

// FeedAlertData is the payload for feed.alert messages.
type FeedAlertData struct {
	Reading *models.Reading `json:"reading"`
	Alert   string          `json:"alert"`
}

// FeedErrorData is the payload for feed.error messages.
type FeedErrorData struct {
	Error string `json:"error"`
}
