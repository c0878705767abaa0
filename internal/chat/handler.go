package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/internal/server"
	"go.uber.org/zap"
)

// Handler exposes the LLM analysis HTTP surface.
type Handler struct {
	client *Client
	hist   *history.HistoryStore
	logger *zap.Logger
}

var _ server.RouteRegistrar = (*Handler)(nil)

// NewHandler creates a chat handler.
func NewHandler(client *Client, hist *history.HistoryStore, logger *zap.Logger) *Handler {
	return &Handler{
		client: client,
		hist:   hist,
		logger: logger,
	}
}

// RegisterRoutes registers chat routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat/series/{id}", h.handleAnalyzeSeries)
}

// AnalysisRequest is the optional body of the series analysis endpoint.
// Without a question the endpoint runs the one-shot analysis; with one it
// answers the question against the series context, replaying any prior
// exchanges the caller sends back.
type AnalysisRequest struct {
	Question string     `json:"question,omitempty"`
	History  []Exchange `json:"history,omitempty"`
}

// AnalysisResponse is returned by the series analysis endpoint.
type AnalysisResponse struct {
	SeriesID string `json:"series_id"`
	Model    string `json:"model"`
	Question string `json:"question,omitempty"`
	Stats    Stats  `json:"stats"`
	Analysis string `json:"analysis"`
}

func (h *Handler) handleAnalyzeSeries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	rec, series, err := h.hist.GetSeries(r.Context(), id)
	if err != nil {
		h.logger.Error("series lookup failed", zap.Error(err))
		server.InternalError(w, "failed to load series", r.URL.Path)
		return
	}
	if rec == nil {
		server.NotFound(w, fmt.Sprintf("series %q not found", id), r.URL.Path)
		return
	}

	stats := Compute(series)

	var prompt string
	if req.Question != "" {
		docs, err := h.patientDocuments(r.Context(), rec.PatientID)
		if err != nil {
			h.logger.Error("document load failed",
				zap.String("patient_id", rec.PatientID),
				zap.Error(err))
			server.InternalError(w, "failed to load patient documents", r.URL.Path)
			return
		}
		prompt = BuildQuestionPrompt(BuildContext(stats, series, docs), req.Question, req.History)
	} else {
		prompt = BuildPrompt(stats, series)
	}

	analysis, err := h.client.Generate(r.Context(), prompt)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			h.logger.Warn("ollama unreachable", zap.Error(err))
			server.Unavailable(w, "analysis backend is unreachable", r.URL.Path)
			return
		}
		h.logger.Error("analysis failed", zap.Error(err))
		server.InternalError(w, "analysis failed", r.URL.Path)
		return
	}

	h.logger.Info("series analyzed",
		zap.String("series_id", id),
		zap.Int("readings", stats.TotalReadings),
		zap.Int("anomalies", stats.Anomalies.Total()))

	writeJSON(w, http.StatusOK, AnalysisResponse{
		SeriesID: rec.ID,
		Model:    h.client.Model(),
		Question: req.Question,
		Stats:    stats,
		Analysis: analysis,
	})
}

// patientDocuments loads the full text of a patient's registered documents
// for the consultation context. Series without a patient have none.
func (h *Handler) patientDocuments(ctx context.Context, patientID string) ([]history.Document, error) {
	if patientID == "" {
		return nil, nil
	}
	listed, err := h.hist.ListDocuments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	docs := make([]history.Document, 0, len(listed))
	for _, d := range listed {
		full, err := h.hist.GetDocument(ctx, patientID, d.ID)
		if err != nil {
			return nil, err
		}
		if full != nil {
			docs = append(docs, *full)
		}
	}
	return docs, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
