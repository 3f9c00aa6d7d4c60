package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// SQLiteStore implements the Store interface on a single SQLite database
// file. Records are stored as JSON payload blobs keyed by job ID, with the
// listing metadata duplicated into columns so ListRecords never has to
// decode payloads.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			job_id       TEXT PRIMARY KEY,
			best_fitness REAL NOT NULL,
			generations  INTEGER NOT NULL,
			objective    TEXT NOT NULL,
			algorithm    TEXT NOT NULL,
			dim          INTEGER NOT NULL,
			timestamp    TEXT NOT NULL,
			payload      BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRecord upserts the record payload for the given job.
func (s *SQLiteStore) SaveRecord(jobID string, rec *RunRecord) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO records (job_id, best_fitness, generations, objective, algorithm, dim, timestamp, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			best_fitness = excluded.best_fitness,
			generations = excluded.generations,
			objective = excluded.objective,
			algorithm = excluded.algorithm,
			dim = excluded.dim,
			timestamp = excluded.timestamp,
			payload = excluded.payload
	`, jobID, rec.BestFitness, rec.Generations, rec.Config.Objective,
		rec.Config.Algorithm, rec.Config.Dim, rec.Timestamp.Format(timeLayout), payload)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	slog.Debug("Record saved", "jobID", jobID, "backend", "sqlite")
	return nil
}

// LoadRecord retrieves the record payload for the given job.
func (s *SQLiteStore) LoadRecord(jobID string) (*RunRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}

	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM records WHERE job_id = ?`, jobID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return &rec, nil
}

// ListRecords returns metadata for all stored records, newest first.
func (s *SQLiteStore) ListRecords() ([]RecordInfo, error) {
	rows, err := s.db.Query(`
		SELECT job_id, best_fitness, generations, objective, algorithm, dim, timestamp
		FROM records ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var infos []RecordInfo
	for rows.Next() {
		var info RecordInfo
		var ts string
		if err := rows.Scan(&info.JobID, &info.BestFitness, &info.Generations,
			&info.Objective, &info.Algorithm, &info.Dim, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		if info.Timestamp, err = parseTime(ts); err != nil {
			slog.Warn("Skipping record with bad timestamp", "jobID", info.JobID, "error", err)
			continue
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}
	if infos == nil {
		infos = []RecordInfo{}
	}
	return infos, nil
}

// DeleteRecord removes the record row for the given job.
func (s *SQLiteStore) DeleteRecord(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}

	res, err := s.db.Exec(`DELETE FROM records WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return &NotFoundError{JobID: jobID}
	}

	slog.Debug("Record deleted", "jobID", jobID, "backend", "sqlite")
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
