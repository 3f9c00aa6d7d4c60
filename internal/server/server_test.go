package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServer_CreateJob(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	body, _ := json.Marshal(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	// State should be pending or running (since worker starts immediately)
	if job.State != StatePending && job.State != StateRunning && job.State != StateCompleted {
		t.Errorf("Unexpected state %s", job.State)
	}
}

func TestServer_CreateJob_AppliesDefaults(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	body, _ := json.Marshal(JobConfig{Seed: 7})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if job.Config.Objective != "sphere" || job.Config.Algorithm != "de" {
		t.Errorf("Defaults not applied: %+v", job.Config)
	}
	if job.Config.Pop != 400 || job.Config.Task != "maxgen" || job.Config.TaskValue != 200 {
		t.Errorf("Defaults not applied: %+v", job.Config)
	}
}

func TestServer_CreateJob_BadObjective(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	cfg := testConfig()
	cfg.Objective = "nonexistent"
	body, _ := json.Marshal(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if len(s.jobManager.ListJobs()) != 0 {
		t.Error("No job should be created for invalid config")
	}
}

func TestServer_CreateJob_BadTask(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	cfg := testConfig()
	cfg.Task = "forever"
	body, _ := json.Marshal(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_CreateJob_ResumeWithoutStore(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs",
		strings.NewReader(`{"objective":"sphere","dim":3,"algorithm":"de","pop":20,"task":"maxgen","taskValue":10,"seed":1,"resumeFrom":"old-job"}`))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_ListJobs(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	s.jobManager.CreateJob(testConfig(), nil)
	s.jobManager.CreateJob(testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()

	s.handleListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	job := s.jobManager.CreateJob(testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["id"] != job.ID {
		t.Error("Response should contain job ID")
	}

	if response["state"] != string(StatePending) {
		t.Errorf("Expected pending state, got %v", response["state"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_GetJobTrace(t *testing.T) {
	dataDir := t.TempDir()
	s := NewServer(":8080", nil, dataDir, 2)

	job := s.jobManager.CreateJob(testConfig(), nil)
	if err := runJob(context.Background(), s.jobManager, nil, dataDir, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/trace", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobTrace(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var entries []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode trace: %v", err)
	}
	if len(entries) == 0 {
		t.Error("Trace should not be empty")
	}
}

func TestServer_CancelJob(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	job := s.jobManager.CreateJob(testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/jobs/%s/cancel", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleCancelJob(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	select {
	case <-job.ctx.Done():
	default:
		t.Error("Job context should be cancelled")
	}
}

func TestServer_ListObjectives(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/objectives", nil)
	w := httptest.NewRecorder()

	s.handleListObjectives(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var names []string
	if err := json.NewDecoder(w.Body).Decode(&names); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(names) == 0 {
		t.Error("Objective list should not be empty")
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := NewServer(":8080", nil, "", 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/stream", nil)
	w := httptest.NewRecorder()

	s.handleJobStream(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	// Subscribe to events
	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	// Broadcast an event
	event := ProgressEvent{
		JobID:       "job1",
		State:       StateRunning,
		Generation:  10,
		BestFitness: 100.5,
		Elapsed:     1.5,
		Timestamp:   time.Now(),
	}
	eb.Broadcast(event)

	// Receive event
	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.Generation != 10 {
			t.Errorf("Expected generation 10, got %d", received.Generation)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	// Cleanup
	eb.CleanupJob("job1")
}

func TestEventBroadcaster_LastEventReplay(t *testing.T) {
	eb := NewEventBroadcaster()

	eb.Broadcast(ProgressEvent{JobID: "job1", Generation: 7, BestFitness: 0.5})

	// A late subscriber receives the last event immediately.
	ch := eb.Subscribe("job1")
	defer eb.CleanupJob("job1")

	select {
	case received := <-ch:
		if received.Generation != 7 {
			t.Errorf("Expected replayed generation 7, got %d", received.Generation)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for replayed event")
	}
}

func TestApplyConfigDefaults_TLBOPop(t *testing.T) {
	cfg := applyConfigDefaults(JobConfig{Algorithm: "tlbo"})
	if cfg.Pop != 200 {
		t.Errorf("Expected default pop 200 for tlbo, got %d", cfg.Pop)
	}

	cfg = applyConfigDefaults(JobConfig{})
	if cfg.Algorithm != "de" || cfg.Pop != 400 || cfg.Strategy != 1 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}
