package server

import (
	"testing"
	"time"
)

func testConfig() JobConfig {
	return JobConfig{
		Objective: "sphere",
		Dim:       3,
		Algorithm: "de",
		Strategy:  1,
		F:         0.6,
		CR:        0.9,
		Pop:       20,
		Task:      "maxgen",
		TaskValue: 20,
		Rpt:       5,
		Seed:      42,
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testConfig(), nil)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config.Objective != "sphere" {
		t.Errorf("Config not set correctly")
	}
}

func TestJobManager_CreateJob_WithGuess(t *testing.T) {
	jm := NewJobManager()

	guess := []float64{1, 2, 3}
	job := jm.CreateJob(testConfig(), guess)

	if len(job.guess) != 3 {
		t.Errorf("Expected guess of length 3, got %d", len(job.guess))
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testConfig(), nil)

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	jm.CreateJob(testConfig(), nil)
	jm.CreateJob(testConfig(), nil)

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testConfig(), nil)

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Generations = 10
		j.BestFitness = 123.45
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.Generations != 10 {
		t.Error("Generations should be updated")
	}
	if updated.BestFitness != 123.45 {
		t.Error("BestFitness should be updated")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testConfig(), nil)

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("Cancel of pending job should succeed: %v", err)
	}

	select {
	case <-job.ctx.Done():
	default:
		t.Error("Job context should be cancelled")
	}

	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCompleted })
	if err := jm.CancelJob(job.ID); err == nil {
		t.Error("Cancel of completed job should fail")
	}

	if err := jm.CancelJob("nonexistent"); err == nil {
		t.Error("Cancel of nonexistent job should fail")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	a := jm.CreateJob(testConfig(), nil)
	jm.CreateJob(testConfig(), nil)

	if len(jm.GetRunningJobs()) != 0 {
		t.Error("No jobs should be running yet")
	}

	jm.UpdateJob(a.ID, func(j *Job) { j.State = StateRunning })

	running := jm.GetRunningJobs()
	if len(running) != 1 || running[0].ID != a.ID {
		t.Errorf("Expected only job %s running, got %d jobs", a.ID, len(running))
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testConfig(), nil)

	// Simulate concurrent updates
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(generation int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.Generations = generation
				time.Sleep(1 * time.Millisecond)
			})
			done <- true
		}(i)
	}

	// Wait for all updates
	for i := 0; i < 10; i++ {
		<-done
	}

	// Should not crash - actual value depends on race
	_, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}
