// Package history persists patients, generated series, and live readings in
// the shared SQLite database. It plays the backend-store role the rest of the
// system treats as an external collaborator; the generator itself never
// touches it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// Patient is a simulated wearer the generated data is attributed to.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SeriesRecord is the stored metadata for one generated series.
type SeriesRecord struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	IntervalSecs int       `json:"interval_seconds"`
	ReadingCount int       `json:"reading_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Document is a stored medical record attributed to a patient. Text holds
// the extracted document content; list queries return only a short preview
// of it.
type Document struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	Type        string    `json:"type"`
	Filename    string    `json:"filename,omitempty"`
	Text        string    `json:"text,omitempty"`
	TextPreview string    `json:"text_preview,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// documentPreviewLen caps the preview carried in document listings.
const documentPreviewLen = 200

// HistoryStore provides database access for the history component.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a HistoryStore backed by the given database.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// -- Patients --

// InsertPatient inserts a new patient.
func (s *HistoryStore) InsertPatient(ctx context.Context, p *Patient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_patients (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// GetPatient returns a patient by ID. Returns nil, nil if not found.
func (s *HistoryStore) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM history_patients WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

// ListPatients returns all patients ordered by creation time.
func (s *HistoryStore) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM history_patients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// -- Series --

// InsertSeries stores a series record with all of its readings atomically.
func (s *HistoryStore) InsertSeries(ctx context.Context, rec *SeriesRecord, series models.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin series tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history_series (id, patient_id, started_at, interval_seconds, reading_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, nullString(rec.PatientID), rec.StartedAt, rec.IntervalSecs, len(series), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert series %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history_readings (
			series_id, position, ts, heart_rate, spo2, temperature,
			systolic_bp, diastolic_bp, steps, stress_level, status, alert
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare reading insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range series {
		_, err := stmt.ExecContext(ctx,
			rec.ID, i, r.Timestamp.Time(), r.HeartRate, r.SpO2, r.Temperature,
			r.SystolicBP, r.DiastolicBP, r.Steps, r.StressLevel, string(r.Status), r.Alert,
		)
		if err != nil {
			return fmt.Errorf("insert reading %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetSeries returns a stored series record and its readings in position
// order. Returns nil, nil, nil if the series does not exist.
func (s *HistoryStore) GetSeries(ctx context.Context, id string) (*SeriesRecord, models.Series, error) {
	var rec SeriesRecord
	var patientID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, started_at, interval_seconds, reading_count, created_at
		FROM history_series WHERE id = ?`, id,
	).Scan(&rec.ID, &patientID, &rec.StartedAt, &rec.IntervalSecs, &rec.ReadingCount, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get series: %w", err)
	}
	rec.PatientID = patientID.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, heart_rate, spo2, temperature, systolic_bp, diastolic_bp,
		       steps, stress_level, status, alert
		FROM history_readings WHERE series_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get series readings: %w", err)
	}
	defer rows.Close()

	series := make(models.Series, 0, rec.ReadingCount)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, nil, err
		}
		series = append(series, r)
	}
	return &rec, series, rows.Err()
}

// ListSeriesByPatient returns series records for a patient, newest first.
func (s *HistoryStore) ListSeriesByPatient(ctx context.Context, patientID string, limit int) ([]SeriesRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, started_at, interval_seconds, reading_count, created_at
		FROM history_series WHERE patient_id = ?
		ORDER BY created_at DESC LIMIT ?`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var recs []SeriesRecord
	for rows.Next() {
		var rec SeriesRecord
		var pid sql.NullString
		if err := rows.Scan(&rec.ID, &pid, &rec.StartedAt, &rec.IntervalSecs, &rec.ReadingCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		rec.PatientID = pid.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// -- Documents --

// InsertDocument stores a medical document for a patient.
func (s *HistoryStore) InsertDocument(ctx context.Context, d *Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_documents (id, patient_id, doc_type, filename, content, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.PatientID, d.Type, d.Filename, d.Text, d.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ListDocuments returns a patient's documents newest first, each carrying a
// content preview instead of the full text.
func (s *HistoryStore) ListDocuments(ctx context.Context, patientID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, doc_type, filename, substr(content, 1, ?), length(content), uploaded_at
		FROM history_documents WHERE patient_id = ?
		ORDER BY uploaded_at DESC, id DESC`, documentPreviewLen, patientID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var length int
		if err := rows.Scan(&d.ID, &d.PatientID, &d.Type, &d.Filename, &d.TextPreview, &length, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if length > documentPreviewLen {
			d.TextPreview += "..."
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocument returns one of a patient's documents with its full text.
// Returns nil, nil if not found.
func (s *HistoryStore) GetDocument(ctx context.Context, patientID, docID string) (*Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, doc_type, filename, content, uploaded_at
		FROM history_documents WHERE patient_id = ? AND id = ?`, patientID, docID,
	).Scan(&d.ID, &d.PatientID, &d.Type, &d.Filename, &d.Text, &d.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// -- Live readings --

// InsertLiveReading appends one feed reading for a patient.
func (s *HistoryStore) InsertLiveReading(ctx context.Context, patientID string, r models.Reading) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_live_readings (
			patient_id, ts, heart_rate, spo2, temperature,
			systolic_bp, diastolic_bp, steps, stress_level, status, alert
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		patientID, r.Timestamp.Time(), r.HeartRate, r.SpO2, r.Temperature,
		r.SystolicBP, r.DiastolicBP, r.Steps, r.StressLevel, string(r.Status), r.Alert,
	)
	if err != nil {
		return fmt.Errorf("insert live reading: %w", err)
	}
	return nil
}

// LatestLiveReading returns the most recent feed reading for a patient.
// Returns nil, nil if the patient has no readings.
func (s *HistoryStore) LatestLiveReading(ctx context.Context, patientID string) (*models.Reading, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ts, heart_rate, spo2, temperature, systolic_bp, diastolic_bp,
		       steps, stress_level, status, alert
		FROM history_live_readings WHERE patient_id = ?
		ORDER BY id DESC LIMIT 1`, patientID)

	r, err := scanReading(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner) (models.Reading, error) {
	var r models.Reading
	var ts time.Time
	var status string
	var alert sql.NullString

	err := row.Scan(&ts, &r.HeartRate, &r.SpO2, &r.Temperature,
		&r.SystolicBP, &r.DiastolicBP, &r.Steps, &r.StressLevel, &status, &alert)
	if err != nil {
		if err == sql.ErrNoRows {
			return r, err
		}
		return r, fmt.Errorf("scan reading: %w", err)
	}

	r.Timestamp = models.NewTimestamp(ts)
	r.Status = models.Status(status)
	if alert.Valid {
		msg := alert.String
		r.Alert = &msg
	}
	return r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
