package store

// Store defines the interface for run-record persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the record doesn't exist (for Load/Delete)
//   - Return descriptive errors for I/O, serialization, or validation failures
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRecord saves the record for the given job, overwriting any
	// previous record for the same jobID. Implementations should write
	// atomically so a crash never leaves a corrupt record behind.
	SaveRecord(jobID string, rec *RunRecord) error

	// LoadRecord retrieves the record for the given job.
	// Returns ErrNotFound if no record exists for this jobID.
	LoadRecord(jobID string) (*RunRecord, error)

	// ListRecords returns metadata for all available records. The returned
	// slice may be empty if no records exist.
	ListRecords() ([]RecordInfo, error)

	// DeleteRecord removes the record and any associated artifacts for the
	// given job. Returns ErrNotFound if no record exists.
	DeleteRecord(jobID string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing record error.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "record not found: " + e.JobID
	}
	return "record not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
