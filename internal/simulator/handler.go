package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/HealthForge/vitalsim/internal/export"
	"github.com/HealthForge/vitalsim/internal/generator"
	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/internal/server"
	"github.com/HealthForge/vitalsim/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the reading generation HTTP surface.
type Handler struct {
	mu     sync.Mutex // guards synth, whose random source is not safe for concurrent use
	synth  *generator.Synthesizer
	hist   *history.HistoryStore
	logger *zap.Logger
}

var _ server.RouteRegistrar = (*Handler)(nil)

// NewHandler creates a simulator handler.
func NewHandler(synth *generator.Synthesizer, hist *history.HistoryStore, logger *zap.Logger) *Handler {
	return &Handler{
		synth:  synth,
		hist:   hist,
		logger: logger,
	}
}

// RegisterRoutes registers simulator routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sim/readings", h.handleReading)
	mux.HandleFunc("POST /api/v1/sim/series", h.handleCreateSeries)
	mux.HandleFunc("GET /api/v1/sim/series/{id}", h.handleGetSeries)
	mux.HandleFunc("GET /api/v1/sim/series/{id}/summary", h.handleSummary)
	mux.HandleFunc("GET /api/v1/sim/series/{id}/export", h.handleExport)
	mux.HandleFunc("GET /api/v1/sim/patients", h.handleListPatients)
	mux.HandleFunc("POST /api/v1/sim/patients", h.handleCreatePatient)
	mux.HandleFunc("GET /api/v1/sim/patients/{id}/series", h.handlePatientSeries)
	mux.HandleFunc("GET /api/v1/sim/patients/{id}/latest", h.handlePatientLatest)
}

// ReadingRequest asks for a single reading. Anomaly is "auto" (default),
// "none", or a named anomaly kind.
type ReadingRequest struct {
	Timestamp string `json:"timestamp,omitempty"`
	Anomaly   string `json:"anomaly,omitempty"`
}

// SeriesRequest asks for a generated series. When PatientID is set the series
// is persisted and the response carries its ID.
type SeriesRequest struct {
	PatientID       string `json:"patient_id,omitempty"`
	Start           string `json:"start,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	IntervalSeconds int    `json:"interval_seconds"`
}

// SeriesResponse carries a generated or stored series.
type SeriesResponse struct {
	ID        string        `json:"id,omitempty"`
	PatientID string        `json:"patient_id,omitempty"`
	Series    models.Series `json:"series"`
}

// PatientRequest registers a simulated patient.
type PatientRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleReading(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			server.BadRequest(w, "invalid JSON body", r.URL.Path)
			return
		}
	}

	ts := time.Now()
	if req.Timestamp != "" {
		parsed, err := time.ParseInLocation(models.TimeLayout, req.Timestamp, time.Local)
		if err != nil {
			server.BadRequest(w, fmt.Sprintf("timestamp must match %s", models.TimeLayout), r.URL.Path)
			return
		}
		ts = parsed
	}

	directive := generator.Auto()
	switch req.Anomaly {
	case "", "auto":
	case "none":
		directive = generator.None()
	default:
		kind, err := models.ParseAnomalyKind(req.Anomaly)
		if err != nil {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		directive = generator.Force(kind)
	}

	h.mu.Lock()
	reading := h.synth.Reading(ts, directive)
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, reading)
}

func (h *Handler) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	start := time.Now()
	if req.Start != "" {
		parsed, err := time.ParseInLocation(models.TimeLayout, req.Start, time.Local)
		if err != nil {
			server.BadRequest(w, fmt.Sprintf("start must match %s", models.TimeLayout), r.URL.Path)
			return
		}
		start = parsed
	}

	var patient *history.Patient
	if req.PatientID != "" {
		p, err := h.hist.GetPatient(r.Context(), req.PatientID)
		if err != nil {
			h.logger.Error("patient lookup failed", zap.Error(err))
			server.InternalError(w, "failed to look up patient", r.URL.Path)
			return
		}
		if p == nil {
			server.NotFound(w, fmt.Sprintf("patient %q not found", req.PatientID), r.URL.Path)
			return
		}
		patient = p
	}

	duration := time.Duration(req.DurationSeconds) * time.Second
	interval := time.Duration(req.IntervalSeconds) * time.Second

	h.mu.Lock()
	series, err := h.synth.Series(start, duration, interval)
	h.mu.Unlock()
	if err != nil {
		if errors.Is(err, models.ErrInvalidParameter) {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		h.logger.Error("series generation failed", zap.Error(err))
		server.InternalError(w, "series generation failed", r.URL.Path)
		return
	}

	resp := SeriesResponse{Series: series}
	if patient != nil {
		rec := &history.SeriesRecord{
			ID:           uuid.NewString(),
			PatientID:    patient.ID,
			StartedAt:    start,
			IntervalSecs: req.IntervalSeconds,
			ReadingCount: len(series),
			CreatedAt:    time.Now(),
		}
		if err := h.hist.InsertSeries(r.Context(), rec, series); err != nil {
			h.logger.Error("series persist failed", zap.Error(err))
			server.InternalError(w, "failed to persist series", r.URL.Path)
			return
		}
		resp.ID = rec.ID
		resp.PatientID = patient.ID

		h.logger.Info("series persisted",
			zap.String("series_id", rec.ID),
			zap.String("patient_id", patient.ID),
			zap.Int("readings", len(series)))
	}

	writeJSON(w, http.StatusCreated, resp)
}

// loadSeries fetches a stored series or writes a problem response and
// returns false.
func (h *Handler) loadSeries(w http.ResponseWriter, r *http.Request) (*history.SeriesRecord, models.Series, bool) {
	id := r.PathValue("id")
	rec, series, err := h.hist.GetSeries(r.Context(), id)
	if err != nil {
		h.logger.Error("series lookup failed", zap.Error(err))
		server.InternalError(w, "failed to load series", r.URL.Path)
		return nil, nil, false
	}
	if rec == nil {
		server.NotFound(w, fmt.Sprintf("series %q not found", id), r.URL.Path)
		return nil, nil, false
	}
	return rec, series, true
}

func (h *Handler) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	rec, series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SeriesResponse{
		ID:        rec.ID,
		PatientID: rec.PatientID,
		Series:    series,
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, generator.Summarize(series))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := export.ParseFormat(f)
		if err != nil {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		format = parsed
	}

	rec, series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("series-%s.%s", rec.ID, format)))

	var err error
	switch format {
	case export.FormatCSV:
		err = export.WriteCSV(w, series)
	case export.FormatXLSX:
		err = export.WriteXLSX(w, series)
	default:
		err = export.WriteJSON(w, series)
	}
	if err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("export write failed",
			zap.String("series_id", rec.ID),
			zap.String("format", string(format)),
			zap.Error(err))
	}
}

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.hist.ListPatients(r.Context())
	if err != nil {
		h.logger.Error("patient list failed", zap.Error(err))
		server.InternalError(w, "failed to list patients", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *Handler) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if req.Name == "" {
		server.BadRequest(w, "name is required", r.URL.Path)
		return
	}

	patient := &history.Patient{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if err := h.hist.InsertPatient(r.Context(), patient); err != nil {
		h.logger.Error("patient insert failed", zap.Error(err))
		server.InternalError(w, "failed to create patient", r.URL.Path)
		return
	}

	h.logger.Info("patient registered",
		zap.String("patient_id", patient.ID),
		zap.String("name", patient.Name))

	writeJSON(w, http.StatusCreated, patient)
}

func (h *Handler) handlePatientSeries(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.loadPatient(w, r)
	if !ok {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			server.BadRequest(w, "limit must be a positive integer", r.URL.Path)
			return
		}
		limit = n
	}

	records, err := h.hist.ListSeriesByPatient(r.Context(), patient.ID, limit)
	if err != nil {
		h.logger.Error("series list failed",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
		server.InternalError(w, "failed to list series", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handlePatientLatest(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.loadPatient(w, r)
	if !ok {
		return
	}

	reading, err := h.hist.LatestLiveReading(r.Context(), patient.ID)
	if err != nil {
		h.logger.Error("latest reading lookup failed",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
		server.InternalError(w, "failed to load latest reading", r.URL.Path)
		return
	}
	if reading == nil {
		server.NotFound(w, "no readings recorded for patient", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// loadPatient resolves the {id} path value to a stored patient, writing a
// 404 problem when it does not exist.
func (h *Handler) loadPatient(w http.ResponseWriter, r *http.Request) (*history.Patient, bool) {
	id := r.PathValue("id")
	patient, err := h.hist.GetPatient(r.Context(), id)
	if err != nil {
		h.logger.Error("patient lookup failed", zap.String("patient_id", id), zap.Error(err))
		server.InternalError(w, "failed to load patient", r.URL.Path)
		return nil, false
	}
	if patient == nil {
		server.NotFound(w, "patient not found", r.URL.Path)
		return nil, false
	}
	return patient, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
