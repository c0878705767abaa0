package history

import (
	"database/sql"

	"github.com/HealthForge/vitalsim/internal/store"
)

// Migrations returns the schema migrations for the history component.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create patient and series tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS history_patients (
						id TEXT PRIMARY KEY,
						name TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,

					`CREATE TABLE IF NOT EXISTS history_series (
						id TEXT PRIMARY KEY,
						patient_id TEXT REFERENCES history_patients(id),
						started_at DATETIME NOT NULL,
						interval_seconds INTEGER NOT NULL,
						reading_count INTEGER NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_history_series_patient ON history_series(patient_id, created_at)`,

					`CREATE TABLE IF NOT EXISTS history_readings (
						series_id TEXT NOT NULL REFERENCES history_series(id),
						position INTEGER NOT NULL,
						ts DATETIME NOT NULL,
						heart_rate INTEGER NOT NULL,
						spo2 REAL NOT NULL,
						temperature REAL NOT NULL,
						systolic_bp INTEGER NOT NULL,
						diastolic_bp INTEGER NOT NULL,
						steps INTEGER NOT NULL,
						stress_level INTEGER NOT NULL,
						status TEXT NOT NULL,
						alert TEXT,
						PRIMARY KEY (series_id, position)
					)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version:     2,
			Description: "create live reading table for the feed",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS history_live_readings (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						patient_id TEXT NOT NULL,
						ts DATETIME NOT NULL,
						heart_rate INTEGER NOT NULL,
						spo2 REAL NOT NULL,
						temperature REAL NOT NULL,
						systolic_bp INTEGER NOT NULL,
						diastolic_bp INTEGER NOT NULL,
						steps INTEGER NOT NULL,
						stress_level INTEGER NOT NULL,
						status TEXT NOT NULL,
						alert TEXT
					)`,
					`CREATE INDEX IF NOT EXISTS idx_history_live_patient_time ON history_live_readings(patient_id, ts)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version:     3,
			Description: "create medical document table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS history_documents (
						id TEXT PRIMARY KEY,
						patient_id TEXT NOT NULL REFERENCES history_patients(id),
						doc_type TEXT NOT NULL,
						filename TEXT NOT NULL DEFAULT '',
						content TEXT NOT NULL,
						uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_history_documents_patient ON history_documents(patient_id, uploaded_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
