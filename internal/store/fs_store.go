package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements the Store interface using filesystem-based
// persistence. Records are stored as <baseDir>/jobs/<jobID>/record.json.
//
// Thread-safety: atomic file operations (temp file + rename) are used, so
// no locks are required; multiple goroutines can call methods concurrently.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// jobDir returns the directory path for a given job ID.
func (fs *FSStore) jobDir(jobID string) string {
	return filepath.Join(fs.baseDir, "jobs", jobID)
}

// recordPath returns the path to the record.json file for a job.
func (fs *FSStore) recordPath(jobID string) string {
	return filepath.Join(fs.jobDir(jobID), "record.json")
}

// SaveRecord atomically saves a record using the temp file + rename pattern.
func (fs *FSStore) SaveRecord(jobID string, rec *RunRecord) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	jobDir := fs.jobDir(jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	tempPath := fs.recordPath(jobID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}

	finalPath := fs.recordPath(jobID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename record file: %w", err)
	}

	slog.Debug("Record saved", "jobID", jobID, "path", finalPath)
	return nil
}

// LoadRecord retrieves the record for the given job.
func (fs *FSStore) LoadRecord(jobID string) (*RunRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}

	path := fs.recordPath(jobID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat record file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}

	slog.Debug("Record loaded", "jobID", jobID, "path", path)
	return &rec, nil
}

// ListRecords returns metadata for all available records.
func (fs *FSStore) ListRecords() ([]RecordInfo, error) {
	jobsDir := filepath.Join(fs.baseDir, "jobs")

	if _, err := os.Stat(jobsDir); os.IsNotExist(err) {
		return []RecordInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat jobs directory: %w", err)
	}

	entries, err := os.ReadDir(jobsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory: %w", err)
	}

	var infos []RecordInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		jobID := entry.Name()
		if _, err := os.Stat(fs.recordPath(jobID)); os.IsNotExist(err) {
			continue // directory without record.json
		}

		rec, err := fs.LoadRecord(jobID)
		if err != nil {
			slog.Warn("Failed to load record for listing", "jobID", jobID, "error", err)
			continue // skip corrupted records
		}
		infos = append(infos, rec.ToInfo())
	}

	slog.Debug("Listed records", "count", len(infos))
	return infos, nil
}

// DeleteRecord removes the record and all associated artifacts, including
// the trace file.
func (fs *FSStore) DeleteRecord(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}

	jobDir := fs.jobDir(jobID)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return &NotFoundError{JobID: jobID}
	} else if err != nil {
		return fmt.Errorf("failed to stat job directory: %w", err)
	}

	if err := os.RemoveAll(jobDir); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}

	slog.Debug("Record deleted", "jobID", jobID, "path", jobDir)
	return nil
}

// Close is a no-op for the filesystem store.
func (fs *FSStore) Close() error { return nil }
