package ws

import (
	"context"
	"net/http"

	"github.com/HealthForge/vitalsim/internal/event"
	"github.com/HealthForge/vitalsim/internal/feed"
	"github.com/HealthForge/vitalsim/internal/share"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Handler provides WebSocket endpoints for real-time reading streams.
type Handler struct {
	hub    *Hub
	tokens *share.TokenService
	bus    *event.Bus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to feed events.
func NewHandler(tokens *share.TokenService, bus *event.Bus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/feed", h.handleFeedStream)
}

// handleFeedStream upgrades the connection to WebSocket and streams live
// readings scoped to the share code's patient.
func (h *Handler) handleFeedStream(w http.ResponseWriter, r *http.Request) {
	// Validate share code from query parameter (browser WS API doesn't support headers).
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateShareCode(code)
	if err != nil {
		http.Error(w, "invalid or expired share code", http.StatusUnauthorized)
		return
	}

	// Accept WebSocket upgrade.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Allow any origin since we validate via the share code.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:      conn,
		patientID: claims.PatientID,
		send:      make(chan Message, 256),
		logger:    h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	// Client disconnected -- stop write pump and unregister.
	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents subscribes to feed events and forwards them to connected
// WebSocket clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.bus.Subscribe(feed.TopicReading, func(_ context.Context, ev event.Event) {
		re, ok := ev.Payload.(*feed.ReadingEvent)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageFeedReading,
			PatientID: re.PatientID,
			Timestamp: ev.Timestamp,
			Data: FeedReadingData{
				Reading: re.Reading,
			},
		})
	})

	h.bus.Subscribe(feed.TopicAlert, func(_ context.Context, ev event.Event) {
		re, ok := ev.Payload.(*feed.ReadingEvent)
		if !ok || re.Reading.Alert == nil {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageFeedAlert,
			PatientID: re.PatientID,
			Timestamp: ev.Timestamp,
			Data: FeedAlertData{
				Reading: re.Reading,
				Alert:   *re.Reading.Alert,
			},
		})
	})

	h.logger.Info("subscribed to feed events for WebSocket broadcasting")
}
