// Package records keeps per-patient medical documents: uploaded report text
// registered against a patient and retrievable for consultations. Documents
// arrive with their text already extracted; running OCR on source files is
// out of scope here.
package records

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/internal/server"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDocumentType is used when an upload does not name one.
const DefaultDocumentType = "medical_report"

// Handler exposes the medical document HTTP surface.
type Handler struct {
	hist   *history.HistoryStore
	logger *zap.Logger
}

var _ server.RouteRegistrar = (*Handler)(nil)

// NewHandler creates a records handler.
func NewHandler(hist *history.HistoryStore, logger *zap.Logger) *Handler {
	return &Handler{hist: hist, logger: logger}
}

// RegisterRoutes registers document routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/records/patients/{patient_id}/documents", h.handleUpload)
	mux.HandleFunc("GET /api/v1/records/patients/{patient_id}/documents", h.handleList)
	mux.HandleFunc("GET /api/v1/records/patients/{patient_id}/documents/{doc_id}", h.handleGet)
}

// UploadRequest registers one document for a patient.
type UploadRequest struct {
	Type     string `json:"type,omitempty"`
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.loadPatient(w, r)
	if !ok {
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if req.Text == "" {
		server.BadRequest(w, "text is required", r.URL.Path)
		return
	}
	if req.Type == "" {
		req.Type = DefaultDocumentType
	}

	doc := &history.Document{
		ID:         uuid.NewString(),
		PatientID:  patient.ID,
		Type:       req.Type,
		Filename:   req.Filename,
		Text:       req.Text,
		UploadedAt: time.Now(),
	}
	if err := h.hist.InsertDocument(r.Context(), doc); err != nil {
		h.logger.Error("document insert failed",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
		server.InternalError(w, "failed to store document", r.URL.Path)
		return
	}

	h.logger.Info("document registered",
		zap.String("patient_id", patient.ID),
		zap.String("document_id", doc.ID),
		zap.String("type", doc.Type))

	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.loadPatient(w, r)
	if !ok {
		return
	}

	docs, err := h.hist.ListDocuments(r.Context(), patient.ID)
	if err != nil {
		h.logger.Error("document list failed",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
		server.InternalError(w, "failed to list documents", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.loadPatient(w, r)
	if !ok {
		return
	}

	docID := r.PathValue("doc_id")
	doc, err := h.hist.GetDocument(r.Context(), patient.ID, docID)
	if err != nil {
		h.logger.Error("document lookup failed",
			zap.String("patient_id", patient.ID),
			zap.String("document_id", docID),
			zap.Error(err))
		server.InternalError(w, "failed to load document", r.URL.Path)
		return
	}
	if doc == nil {
		server.NotFound(w, fmt.Sprintf("document %q not found", docID), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// loadPatient resolves the {patient_id} path value to a stored patient,
// writing a 404 problem when it does not exist.
func (h *Handler) loadPatient(w http.ResponseWriter, r *http.Request) (*history.Patient, bool) {
	patientID := r.PathValue("patient_id")
	patient, err := h.hist.GetPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("patient lookup failed", zap.String("patient_id", patientID), zap.Error(err))
		server.InternalError(w, "failed to look up patient", r.URL.Path)
		return nil, false
	}
	if patient == nil {
		server.NotFound(w, fmt.Sprintf("patient %q not found", patientID), r.URL.Path)
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
