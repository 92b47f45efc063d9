// Package history pkg/history/history.go provides SQLite persistence for
// finished scan sessions and their findings.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/awast-sec/awast-go/pkg/models"
	"github.com/awast-sec/awast-go/pkg/session"
)

var (
	errFailedOpenDB      = errors.New("failed to open database")
	errFailedToEnableWAL = errors.New("failed to enable WAL mode")
	errFailedToInit      = errors.New("failed to initialize schema")
	errFailedToInsert    = errors.New("failed to insert")
	errFailedToQuery     = errors.New("failed to query")
	errFailedToScan      = errors.New("failed to scan")
	errFailedToBeginTx   = errors.New("failed to begin transaction")
)

const (
	// SQL statements for database initialization.
	createTablesSQL = `
	-- Finished scan sessions
	CREATE TABLE IF NOT EXISTS scans (
		record_id TEXT PRIMARY KEY,
		scan_id TEXT NOT NULL,
		target TEXT NOT NULL,
		kind TEXT NOT NULL,
		phase TEXT NOT NULL,
		progress INTEGER NOT NULL,
		total_alerts INTEGER NOT NULL,
		error_message TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	-- Findings of a recorded session
	CREATE TABLE IF NOT EXISTS scan_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id TEXT NOT NULL,
		name TEXT NOT NULL,
		risk TEXT NOT NULL,
		confidence TEXT,
		url TEXT NOT NULL,
		param TEXT,
		evidence TEXT,
		solution TEXT,
		reference TEXT,
		cweid TEXT,
		FOREIGN KEY (record_id) REFERENCES scans(record_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_scans_finished ON scans(finished_at);
	CREATE INDEX IF NOT EXISTS idx_scan_alerts_record ON scan_alerts(record_id);
	`

	insertScanSQL = `
	INSERT INTO scans (record_id, scan_id, target, kind, phase, progress,
		total_alerts, error_message, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	insertAlertSQL = `
	INSERT INTO scan_alerts (record_id, name, risk, confidence, url, param,
		evidence, solution, reference, cweid)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
)

// ScanRecord is one persisted session.
type ScanRecord struct {
	RecordID     string
	ScanID       string
	Target       string
	Kind         string
	Phase        string
	Progress     int
	TotalAlerts  int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Store persists terminal scan sessions. It implements session.Recorder.
type Store struct {
	db *sql.DB
}

// New opens or creates the history database at dbPath and initializes the
// schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedOpenDB, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", errFailedToEnableWAL, err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSession persists a terminal session and its findings.
func (s *Store) RecordSession(ctx context.Context, sess session.ScanSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToBeginTx, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	recordID := uuid.New().String()

	_, err = tx.ExecContext(ctx, insertScanSQL,
		recordID,
		sess.ID,
		sess.TargetURL,
		string(sess.Kind),
		string(sess.Phase),
		sess.ProgressPercent,
		sess.TotalAlertsFound,
		sess.LastErrorMessage,
		sess.StartedAt,
		sess.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToInsert, err)
	}

	for i := range sess.Alerts {
		a := &sess.Alerts[i]

		_, err = tx.ExecContext(ctx, insertAlertSQL,
			recordID,
			a.Name,
			string(a.Risk),
			a.Confidence,
			a.URL,
			a.Param,
			a.Evidence,
			a.Solution,
			a.Reference,
			a.CWEID,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", errFailedToInsert, err)
		}
	}

	return tx.Commit()
}

// RecentScans returns the most recently finished sessions, newest first.
func (s *Store) RecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, scan_id, target, kind, phase, progress,
			total_alerts, COALESCE(error_message, ''), started_at, finished_at
		FROM scans
		ORDER BY finished_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToQuery, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]ScanRecord, 0)

	for rows.Next() {
		var rec ScanRecord
		if err := rows.Scan(
			&rec.RecordID,
			&rec.ScanID,
			&rec.Target,
			&rec.Kind,
			&rec.Phase,
			&rec.Progress,
			&rec.TotalAlerts,
			&rec.ErrorMessage,
			&rec.StartedAt,
			&rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToScan, err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToQuery, err)
	}

	return records, nil
}

// AlertsForScan returns the findings recorded for a session, in insertion
// order.
func (s *Store) AlertsForScan(ctx context.Context, recordID string) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, risk, COALESCE(confidence, ''), url, COALESCE(param, ''),
			COALESCE(evidence, ''), COALESCE(solution, ''),
			COALESCE(reference, ''), COALESCE(cweid, '')
		FROM scan_alerts
		WHERE record_id = ?
		ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToQuery, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	alerts := make([]models.Alert, 0)

	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.Name,
			&a.Risk,
			&a.Confidence,
			&a.URL,
			&a.Param,
			&a.Evidence,
			&a.Solution,
			&a.Reference,
			&a.CWEID,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToScan, err)
		}

		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToQuery, err)
	}

	return alerts, nil
}
