// Package storage persists batch run history in SQLite so operators can
// review what was ingested, when, and with what outcome.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avionworks/podlog-go/internal/batch"
)

// Storage handles database operations
type Storage struct {
	db *sql.DB
}

// BatchRecord is one persisted batch run with its per-file results.
type BatchRecord struct {
	ID              int64
	Timestamp       time.Time
	SourceDirs      []string
	OutputDir       string
	Total           int
	Success         int
	Warning         int
	Error           int
	DurationSeconds float64
	Results         []batch.Result
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when database is locked (5 seconds)
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// New creates a new storage instance
func New(dbPath string) (*Storage, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with busy timeout to prevent indefinite waits
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection to avoid lock contention
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// currentSchemaVersion is the latest schema version.
// Increment this when adding new migrations.
const currentSchemaVersion = 1

// initSchema creates the database schema if it doesn't exist
func (s *Storage) initSchema() error {
	// Create schema_version table first (tracks migration state)
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version := s.getSchemaVersion()

	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if none recorded).
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

func (s *Storage) setSchemaVersion(version int) error {
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// migrateSchema runs all migrations newer than the current version.
func (s *Storage) migrateSchema(currentVersion int) error {
	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
		if err := s.setSchemaVersion(1); err != nil {
			return err
		}
	}
	return nil
}

// migrateV1 creates the initial batches and batch_results tables.
func (s *Storage) migrateV1() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			source_dirs TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			total INTEGER NOT NULL,
			success INTEGER NOT NULL,
			warning INTEGER NOT NULL,
			error INTEGER NOT NULL,
			duration_seconds REAL NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create batches table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS batch_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			source_path TEXT NOT NULL,
			dest_path TEXT,
			sensor_id TEXT,
			epoch TEXT,
			mission_id TEXT,
			status TEXT NOT NULL,
			message TEXT
		)
	`); err != nil {
		return fmt.Errorf("failed to create batch_results table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_batch_results_batch_id ON batch_results(batch_id)
	`); err != nil {
		return fmt.Errorf("failed to create batch_results index: %w", err)
	}

	return nil
}

// SaveBatch persists one batch run and its per-file results atomically.
// The record's ID is set on success.
func (s *Storage) SaveBatch(rec *BatchRecord) error {
	dirsJSON, err := json.Marshal(rec.SourceDirs)
	if err != nil {
		return fmt.Errorf("failed to marshal source dirs: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO batches (timestamp, source_dirs, output_dir, total, success, warning, error, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, string(dirsJSON), rec.OutputDir,
		rec.Total, rec.Success, rec.Warning, rec.Error, rec.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	batchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get batch id: %w", err)
	}

	for _, r := range rec.Results {
		if _, err := tx.Exec(`
			INSERT INTO batch_results (batch_id, source_path, dest_path, sensor_id, epoch, mission_id, status, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID, r.SourcePath, r.DestPath,
			r.Identity.SensorID, r.Identity.Epoch, r.Identity.MissionID,
			string(r.Status), r.Message,
		); err != nil {
			return fmt.Errorf("failed to insert batch result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	rec.ID = batchID
	return nil
}

// RecentBatches returns batches from the last N days, newest first, without
// their per-file rows. Use BatchResults to load the rows of one batch.
func (s *Storage) RecentBatches(days int) ([]*BatchRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	rows, err := s.db.Query(`
		SELECT id, timestamp, source_dirs, output_dir, total, success, warning, error, duration_seconds
		FROM batches
		WHERE timestamp > ?
		ORDER BY timestamp DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*BatchRecord
	for rows.Next() {
		rec, err := s.scanBatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batches: %w", err)
	}

	return records, nil
}

// BatchResults loads the per-file rows of one batch, in insertion order.
func (s *Storage) BatchResults(batchID int64) ([]batch.Result, error) {
	rows, err := s.db.Query(`
		SELECT source_path, dest_path, sensor_id, epoch, mission_id, status, message
		FROM batch_results
		WHERE batch_id = ?
		ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []batch.Result
	for rows.Next() {
		var r batch.Result
		var status string
		if err := rows.Scan(&r.SourcePath, &r.DestPath,
			&r.Identity.SensorID, &r.Identity.Epoch, &r.Identity.MissionID,
			&status, &r.Message); err != nil {
			return nil, fmt.Errorf("failed to scan batch result: %w", err)
		}
		r.Status = batch.Status(status)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batch results: %w", err)
	}

	return results, nil
}

// CleanupOldBatches removes batches older than N days and returns how many
// were deleted. Their result rows cascade.
func (s *Storage) CleanupOldBatches(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	res, err := s.db.Exec(`DELETE FROM batches WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old batches: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

// Statistics returns aggregate figures over the whole history.
func (s *Storage) Statistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var batches, files, success, warning, errCount int
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(success), 0),
		       COALESCE(SUM(warning), 0), COALESCE(SUM(error), 0)
		FROM batches`).Scan(&batches, &files, &success, &warning, &errCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}

	stats["total_batches"] = batches
	stats["total_files"] = files
	stats["total_success"] = success
	stats["total_warning"] = warning
	stats["total_error"] = errCount

	return stats, nil
}

func (s *Storage) scanBatch(rows *sql.Rows) (*BatchRecord, error) {
	rec := &BatchRecord{}
	var dirsJSON string

	if err := rows.Scan(&rec.ID, &rec.Timestamp, &dirsJSON, &rec.OutputDir,
		&rec.Total, &rec.Success, &rec.Warning, &rec.Error, &rec.DurationSeconds); err != nil {
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}

	if err := json.Unmarshal([]byte(dirsJSON), &rec.SourceDirs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source dirs: %w", err)
	}

	return rec, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}
