package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc/pool"

	"github.com/cwbudde/metaheuristics/internal/bench"
	"github.com/cwbudde/metaheuristics/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager  *JobManager
	recordStore store.Store
	dataDir     string
	addr        string
	server      *http.Server
	workers     *pool.Pool
}

// NewServer creates a new HTTP server. recordStore may be nil to disable
// persistence; dataDir may be empty to disable trace files. maxConcurrent
// bounds the number of jobs evolving at the same time.
func NewServer(addr string, recordStore store.Store, dataDir string, maxConcurrent int) *Server {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Server{
		jobManager:  NewJobManager(),
		recordStore: recordStore,
		dataDir:     dataDir,
		addr:        addr,
		workers:     pool.New().WithMaxGoroutines(maxConcurrent),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Register API routes
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/objectives", s.handleListObjectives)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Wrap with middleware
	handler := s.loggingMiddleware(s.corsMiddleware(mux))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and waits for running jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	for _, job := range s.jobManager.GetRunningJobs() {
		job.cancel()
	}
	s.workers.Wait()
	return nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	// Parse job ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Route based on subpath
	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetJobStatus(w, r, jobID)
	} else if parts[1] == "stream" {
		s.handleJobStream(w, r, jobID)
	} else if parts[1] == "trace" {
		s.handleGetJobTrace(w, r, jobID)
	} else if parts[1] == "cancel" {
		s.handleCancelJob(w, r, jobID)
	} else {
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// createJobRequest is the POST /api/v1/jobs payload. ResumeFrom optionally
// names a stored record whose best vector seeds the new run.
type createJobRequest struct {
	JobConfig
	ResumeFrom string `json:"resumeFrom,omitempty"`
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	config := applyConfigDefaults(req.JobConfig)

	// Validate the objective up front so submission fails fast.
	if _, err := bench.New(config.Objective, config.Dim); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := taskFromConfig(config); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var guess []float64
	if req.ResumeFrom != "" {
		if s.recordStore == nil {
			http.Error(w, "Persistence is disabled, cannot resume", http.StatusBadRequest)
			return
		}
		rec, err := s.recordStore.LoadRecord(req.ResumeFrom)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to load record %s: %v", req.ResumeFrom, err), http.StatusBadRequest)
			return
		}
		if err := rec.IsCompatible(config); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		guess = rec.BestParams
	}

	// Create job
	job := s.jobManager.CreateJob(config, guess)
	jobsCreated.Inc()

	// Hand the job to the bounded worker pool
	jm := s.jobManager
	s.workers.Go(func() {
		runJob(job.ctx, jm, s.recordStore, s.dataDir, job.ID)
	})

	// Return job
	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	// Compute elapsed time and generation throughput
	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	gps := float64(0)
	if elapsed.Seconds() > 0 {
		gps = float64(job.Generations) / elapsed.Seconds()
	}

	improvement := float64(0)
	if job.InitialFitness != 0 {
		improvement = (job.InitialFitness - job.BestFitness) / job.InitialFitness
	}

	response := map[string]interface{}{
		"id":             job.ID,
		"state":          job.State,
		"config":         job.Config,
		"bestFitness":    job.BestFitness,
		"initialFitness": job.InitialFitness,
		"improvement":    improvement,
		"generations":    job.Generations,
		"elapsed":        elapsed.Seconds(),
		"gensPerSecond":  gps,
		"startTime":      job.StartTime,
		"endTime":        job.EndTime,
		"error":          job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetJobTrace handles GET /api/v1/jobs/:id/trace, serving the full
// report history of the job.
func (s *Server) handleGetJobTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if s.dataDir == "" {
		http.Error(w, "Trace files are disabled", http.StatusNotFound)
		return
	}

	reader, err := store.NewTraceReader(s.dataDir, jobID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open trace: %v", err), http.StatusNotFound)
		return
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read trace: %v", err), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.TraceEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCancelJob handles POST /api/v1/jobs/:id/cancel
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.jobManager.CancelJob(jobID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": jobID, "state": "cancelling"})
}

// handleListObjectives handles GET /api/v1/objectives
func (s *Server) handleListObjectives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, bench.Names())
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "ok\n")
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
