package store

import (
	"fmt"
	"time"
)

// RunConfig holds the configuration of an optimization job (record copy).
// This avoids import cycles with the server package.
type RunConfig struct {
	Objective string  `json:"objective"`          // registry name, e.g. "sphere"
	Dim       int     `json:"dim"`                // problem dimensionality
	Algorithm string  `json:"algorithm"`          // "de" or "tlbo"
	Strategy  int     `json:"strategy,omitempty"` // DE strategy id 1..10
	F         float64 `json:"f,omitempty"`        // DE mutation scale factor
	CR        float64 `json:"cr,omitempty"`       // DE crossover probability
	Pop       int     `json:"pop"`                // population size
	Task      string  `json:"task"`               // maxgen, minfit, maxtime, slowdown
	TaskValue float64 `json:"taskValue"`          // generations, fitness, seconds or ratio
	Rpt       int     `json:"rpt"`                // report cadence in generations
	Seed      int64   `json:"seed"`
	// RecordInterval saves an intermediate record every N seconds while a
	// job runs (0 = disabled).
	RecordInterval int `json:"recordInterval,omitempty"`
}

// RunRecord is the persisted outcome of an optimization job.
//
// The record saves the best parameter vector found so far, not the internal
// optimizer state (population, auxiliary buffers, random source). Resuming
// therefore restarts with a fresh population seeded with the recorded best
// vector: the recorded best can never get worse, but a resumed run is not a
// bit-exact continuation of the interrupted one.
type RunRecord struct {
	// JobID is the unique identifier for the optimization job.
	JobID string `json:"jobId"`

	// BestParams is the best parameter vector found so far.
	BestParams []float64 `json:"bestParams"`

	// BestFitness is the fitness achieved by BestParams.
	BestFitness float64 `json:"bestFitness"`

	// InitialFitness is the best fitness of the initial population, kept
	// for improvement tracking.
	InitialFitness float64 `json:"initialFitness"`

	// Generations is the generation count when this record was created.
	Generations int `json:"generations"`

	// Timestamp records when this record was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation during
	// resume.
	Config RunConfig `json:"config"`
}

// NewRunRecord creates a record from job state.
func NewRunRecord(jobID string, bestParams []float64, bestFitness, initialFitness float64, generations int, config RunConfig) *RunRecord {
	return &RunRecord{
		JobID:          jobID,
		BestParams:     bestParams,
		BestFitness:    bestFitness,
		InitialFitness: initialFitness,
		Generations:    generations,
		Timestamp:      time.Now(),
		Config:         config,
	}
}

// RecordInfo contains metadata about a record without the parameter data.
// Used for listing records without loading large vectors.
type RecordInfo struct {
	JobID       string    `json:"jobId"`
	BestFitness float64   `json:"bestFitness"`
	Generations int       `json:"generations"`
	Timestamp   time.Time `json:"timestamp"`
	Objective   string    `json:"objective"`
	Algorithm   string    `json:"algorithm"`
	Dim         int       `json:"dim"`
}

// ToInfo converts a full RunRecord to its metadata.
func (r *RunRecord) ToInfo() RecordInfo {
	return RecordInfo{
		JobID:       r.JobID,
		BestFitness: r.BestFitness,
		Generations: r.Generations,
		Timestamp:   r.Timestamp,
		Objective:   r.Config.Objective,
		Algorithm:   r.Config.Algorithm,
		Dim:         r.Config.Dim,
	}
}

// Validate checks that the record has usable data.
func (r *RunRecord) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(r.BestParams) == 0 {
		return &ValidationError{Field: "BestParams", Reason: "cannot be empty"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Config.Objective == "" {
		return &ValidationError{Field: "Config.Objective", Reason: "cannot be empty"}
	}
	if r.Config.Algorithm == "" {
		return &ValidationError{Field: "Config.Algorithm", Reason: "cannot be empty"}
	}
	if r.Config.Pop <= 0 {
		return &ValidationError{Field: "Config.Pop", Reason: "must be positive"}
	}
	if r.Config.Dim <= 0 {
		return &ValidationError{Field: "Config.Dim", Reason: "must be positive"}
	}
	if len(r.BestParams) != r.Config.Dim {
		return &ValidationError{
			Field:  "BestParams",
			Reason: fmt.Sprintf("length mismatch: %d params for dimension %d", len(r.BestParams), r.Config.Dim),
		}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks whether this record can seed a run with the given
// config: the objective, dimensionality and algorithm must match.
func (r *RunRecord) IsCompatible(config RunConfig) error {
	if r.Config.Objective != config.Objective {
		return &CompatibilityError{
			Field:    "Objective",
			Expected: r.Config.Objective,
			Actual:   config.Objective,
		}
	}
	if r.Config.Dim != config.Dim {
		return &CompatibilityError{
			Field:    "Dim",
			Expected: fmt.Sprintf("%d", r.Config.Dim),
			Actual:   fmt.Sprintf("%d", config.Dim),
		}
	}
	if r.Config.Algorithm != config.Algorithm {
		return &CompatibilityError{
			Field:    "Algorithm",
			Expected: r.Config.Algorithm,
			Actual:   config.Algorithm,
		}
	}
	return nil
}

// CompatibilityError represents a record compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
