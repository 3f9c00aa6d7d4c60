package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/metaheuristics"
	"github.com/cwbudde/metaheuristics/internal/bench"
	"github.com/cwbudde/metaheuristics/internal/store"
)

// taskFromConfig maps the wire-level task name and value onto a termination
// condition.
func taskFromConfig(cfg JobConfig) (metaheuristics.Task, error) {
	switch cfg.Task {
	case "maxgen":
		if cfg.TaskValue < 1 {
			return metaheuristics.Task{}, fmt.Errorf("maxgen task needs a positive generation count, got %g", cfg.TaskValue)
		}
		return metaheuristics.MaxGen(int(cfg.TaskValue)), nil
	case "minfit":
		return metaheuristics.MinFit(cfg.TaskValue), nil
	case "maxtime":
		if cfg.TaskValue <= 0 {
			return metaheuristics.Task{}, fmt.Errorf("maxtime task needs a positive duration, got %g", cfg.TaskValue)
		}
		return metaheuristics.MaxTime(time.Duration(cfg.TaskValue * float64(time.Second))), nil
	case "slowdown":
		if cfg.TaskValue <= 0 || cfg.TaskValue > 1 {
			return metaheuristics.Task{}, fmt.Errorf("slowdown ratio must be in (0, 1], got %g", cfg.TaskValue)
		}
		return metaheuristics.SlowDown(cfg.TaskValue), nil
	default:
		return metaheuristics.Task{}, fmt.Errorf("unknown task %q (want maxgen, minfit, maxtime or slowdown)", cfg.Task)
	}
}

// buildAlgorithm constructs the configured engine over the named benchmark
// objective.
func buildAlgorithm(problem *bench.Problem, cfg JobConfig, guess []float64) (metaheuristics.Algorithm[float64], error) {
	task, err := taskFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	setting := metaheuristics.Setting{
		Task:   task,
		PopNum: cfg.Pop,
		Rpt:    cfg.Rpt,
		Seed:   cfg.Seed,
		Guess:  guess,
	}

	switch cfg.Algorithm {
	case "de":
		ds := metaheuristics.DefaultDESetting()
		ds.Setting = setting
		if cfg.Strategy != 0 {
			ds.Strategy = metaheuristics.Strategy(cfg.Strategy)
		}
		if cfg.F != 0 {
			ds.F = cfg.F
		}
		if cfg.CR != 0 {
			ds.CR = cfg.CR
		}
		return metaheuristics.NewDE[float64](problem, ds)
	case "tlbo":
		return metaheuristics.NewTLBO[float64](problem, setting)
	default:
		return nil, fmt.Errorf("unknown algorithm %q (want de or tlbo)", cfg.Algorithm)
	}
}

// runJob executes an optimization job in the background. If recordStore is
// not nil, a record is saved on completion and, when the job's
// recordInterval is positive, periodically while the run progresses. A
// trace of every report is written under dataDir when it is non-empty.
func runJob(ctx context.Context, jm *JobManager, recordStore store.Store, dataDir, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	cfg := job.Config

	// Honor cancellations issued while the job waited in the pool.
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	runningJobs.Inc()
	defer runningJobs.Dec()

	slog.Info("Starting job", "job_id", jobID,
		"objective", cfg.Objective, "algorithm", cfg.Algorithm, "task", cfg.Task)

	problem, err := bench.New(cfg.Objective, cfg.Dim)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	alg, err := buildAlgorithm(problem, cfg, job.guess)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	base := alg.Base()

	var trace *store.TraceWriter
	if dataDir != "" {
		trace, err = store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		defer trace.Close()
	}

	lastSave := time.Now()
	lastGen := 0
	callback := func(r metaheuristics.Report) {
		params := append([]float64{}, base.Best...)
		jm.UpdateJob(jobID, func(j *Job) {
			j.Generations = r.Gen
			j.BestFitness = r.Fitness
			j.BestParams = params
			if r.Gen == 0 {
				j.InitialFitness = r.Fitness
			}
		})

		generationsTotal.Add(float64(r.Gen - lastGen))
		lastGen = r.Gen
		bestFitnessGauge.WithLabelValues(jobID).Set(r.Fitness)

		if trace != nil {
			if err := trace.Write(store.TraceEntry{Gen: r.Gen, Fitness: r.Fitness, Time: r.Time}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:       jobID,
			State:       StateRunning,
			Generation:  r.Gen,
			BestFitness: r.Fitness,
			Elapsed:     r.Time,
			Timestamp:   time.Now(),
		})

		if recordStore != nil && cfg.RecordInterval > 0 &&
			time.Since(lastSave) >= time.Duration(cfg.RecordInterval)*time.Second {
			if err := saveRecord(jm, recordStore, jobID); err != nil {
				slog.Error("Failed to save record", "job_id", jobID, "error", err)
			}
			lastSave = time.Now()
		}
	}

	start := time.Now()
	finalFitness := metaheuristics.Run(alg, callback)
	elapsed := time.Since(start)

	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
		}
	}

	// A cancellation request cannot interrupt a generation in flight; it
	// takes effect here, discarding the job outcome but not the record.
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestParams = append([]float64{}, base.Best...)
		j.BestFitness = finalFitness
		j.Generations = base.Gen
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	if recordStore != nil {
		if err := saveRecord(jm, recordStore, jobID); err != nil {
			slog.Error("Failed to save final record", "job_id", jobID, "error", err)
		}
	}

	jobsFinished.WithLabelValues(string(StateCompleted)).Inc()
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"generations", base.Gen,
		"best_fitness", finalFitness,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Generation:  base.Gen,
		BestFitness: finalFitness,
		Elapsed:     elapsed.Seconds(),
		Timestamp:   time.Now(),
	})

	return nil
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jobsFinished.WithLabelValues(string(StateFailed)).Inc()
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	jobsFinished.WithLabelValues(string(StateCancelled)).Inc()
	slog.Info("Job cancelled", "job_id", jobID)
}

// saveRecord persists the current best of the given job.
func saveRecord(jm *JobManager, recordStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if len(job.BestParams) == 0 {
		slog.Debug("Skipping record, no best params yet", "job_id", jobID)
		return nil
	}

	rec := store.NewRunRecord(
		jobID,
		job.BestParams,
		job.BestFitness,
		job.InitialFitness,
		job.Generations,
		job.Config,
	)
	if err := recordStore.SaveRecord(jobID, rec); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	slog.Info("Record saved",
		"job_id", jobID,
		"generation", job.Generations,
		"best_fitness", job.BestFitness,
	)
	return nil
}
