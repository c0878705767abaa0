package share

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/internal/server"
	"go.uber.org/zap"
)

// Handler exposes the share code HTTP surface.
type Handler struct {
	tokens   *TokenService
	patients *history.HistoryStore
	baseURL  string
	logger   *zap.Logger
}

var _ server.RouteRegistrar = (*Handler)(nil)

// NewHandler creates a share handler.
func NewHandler(tokens *TokenService, patients *history.HistoryStore, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		tokens:   tokens,
		patients: patients,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// RegisterRoutes registers share routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/share/{patient_id}", h.handleCreate)
	mux.HandleFunc("GET /api/v1/share/{patient_id}/qr.png", h.handleQR)
}

// ShareCodeResponse is returned when a share code is issued.
type ShareCodeResponse struct {
	PatientID string    `json:"patient_id"`
	Code      string    `json:"code"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patient_id")

	patient, err := h.patients.GetPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("patient lookup failed", zap.Error(err))
		server.InternalError(w, "failed to look up patient", r.URL.Path)
		return
	}
	if patient == nil {
		server.NotFound(w, fmt.Sprintf("patient %q not found", patientID), r.URL.Path)
		return
	}

	code, expiresAt, err := h.tokens.IssueShareCode(patient.ID)
	if err != nil {
		h.logger.Error("share code issue failed", zap.Error(err))
		server.InternalError(w, "failed to issue share code", r.URL.Path)
		return
	}

	h.logger.Info("share code issued",
		zap.String("patient_id", patient.ID),
		zap.Time("expires_at", expiresAt))

	writeJSON(w, http.StatusCreated, ShareCodeResponse{
		PatientID: patient.ID,
		Code:      code,
		URL:       ShareURL(h.baseURL, code),
		ExpiresAt: expiresAt,
	})
}

func (h *Handler) handleQR(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patient_id")

	patient, err := h.patients.GetPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("patient lookup failed", zap.Error(err))
		server.InternalError(w, "failed to look up patient", r.URL.Path)
		return
	}
	if patient == nil {
		server.NotFound(w, fmt.Sprintf("patient %q not found", patientID), r.URL.Path)
		return
	}

	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 1024 {
			server.BadRequest(w, "size must be an integer between 64 and 1024", r.URL.Path)
			return
		}
		size = n
	}

	code, _, err := h.tokens.IssueShareCode(patient.ID)
	if err != nil {
		h.logger.Error("share code issue failed", zap.Error(err))
		server.InternalError(w, "failed to issue share code", r.URL.Path)
		return
	}

	png, err := QRCodePNG(h.baseURL, code, size)
	if err != nil {
		h.logger.Error("qr render failed", zap.Error(err))
		server.InternalError(w, "failed to render QR code", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
